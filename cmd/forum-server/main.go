package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	domainauth "github.com/quillboard/quillboard/internal/auth"
	"github.com/quillboard/quillboard/internal/config"
	"github.com/quillboard/quillboard/internal/obs"
	kafkarepo "github.com/quillboard/quillboard/internal/repository/kafka"
	pg "github.com/quillboard/quillboard/internal/repository/postgres"
	"github.com/quillboard/quillboard/internal/revocation"
	authsvc "github.com/quillboard/quillboard/internal/services/auth"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/forum-server.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting forum-server", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(rootCtx) }()

	db, err := initDB(rootCtx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	codec, err := domainauth.NewCodec([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		logger.Fatal("signing secret", zap.Error(err))
	}

	registry := revocation.NewRegistry()
	revRepo := pg.NewRevocationRepo(db)

	var producer *kafkarepo.Producer
	if cfg.RevocationFeed.Enable {
		producer = kafkarepo.NewProducer(cfg.RevocationFeed.Brokers, cfg.RevocationFeed.Topic, logger)
		defer func() { _ = producer.Close() }()
	}

	var pub revocation.Publisher
	if producer != nil {
		pub = producer
	}
	banSvc := revocation.NewService(revRepo, registry, pub, logger)
	if err := banSvc.Load(rootCtx); err != nil {
		logger.Fatal("load revocations", zap.Error(err))
	}

	if cfg.RevocationFeed.Enable {
		consumer := kafkarepo.NewConsumer(kafkarepo.ConsumerConfig{
			Brokers: cfg.RevocationFeed.Brokers,
			GroupID: cfg.RevocationFeed.GroupID,
			Topic:   cfg.RevocationFeed.Topic,
			Logger:  logger,
		})
		defer func() { _ = consumer.Close() }()
		go func() {
			if err := consumer.Consume(rootCtx, banSvc); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("revocation feed consumer", zap.Error(err))
			}
		}()
	}

	metrics := obs.NewAuthMetrics(nil)
	mw := authsvc.NewMiddleware(codec, registry, metrics, logger)
	uc := authsvc.NewUsecase(pg.NewUserRepo(db), codec, authsvc.UsecaseConfig{
		AccessTTL: cfg.Auth.AccessTTL,
	}, logger)
	ctrl := authsvc.NewController(uc, banSvc, mw, logger)

	httpSrv := buildHTTPServer(cfg, ctrl)

	metricsSrv := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		return db.Pool.Ping(ctx)
	}, logger)

	httpErrCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		httpErrCh <- httpSrv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal")
	case runErr = <-httpErrCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	_ = metricsSrv.Shutdown(shCtx)

	time.Sleep(100 * time.Millisecond)
	logger.Info("bye")
}
