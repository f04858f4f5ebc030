package config

import (
	"time"

	pg "github.com/quillboard/quillboard/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

// Auth carries the signing secret and token lifetime. The secret lives here
// for the whole process; it must never appear in logs or responses.
type Auth struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	AccessTTL time.Duration `mapstructure:"access_ttl"`
}

// RevocationFeed configures the optional cross-replica ban fan-out. Disabled
// means single-process visibility only.
type RevocationFeed struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	App            App            `mapstructure:"app"`
	Server         Server         `mapstructure:"server"`
	DB             pg.Config      `mapstructure:"db"`
	Auth           Auth           `mapstructure:"auth"`
	RevocationFeed RevocationFeed `mapstructure:"revocation_feed"`
	OTEL           OTEL           `mapstructure:"otel"`
	Log            Log            `mapstructure:"log"`
}
