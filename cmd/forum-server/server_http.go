package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/quillboard/quillboard/internal/config"
	authsvc "github.com/quillboard/quillboard/internal/services/auth"
)

func buildHTTPServer(cfg *config.Config, ctrl *authsvc.Controller) *http.Server {
	router := mux.NewRouter()
	ctrl.Register(router)

	handler := otelhttp.NewHandler(router, "forum-server.http")

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}
