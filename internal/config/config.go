package config

import (
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const insecureJWTSecret = "your-secret-key"

type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	GRPCPort    string `mapstructure:"GRPC_PORT"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddress  string        `mapstructure:"REDIS_ADDRESS"`
	RedisCacheTTL time.Duration `mapstructure:"REDIS_CACHE_TTL"`

	NATSURL string `mapstructure:"NATS_URL"`

	MinIOEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket    string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPEmail    string `mapstructure:"SMTP_EMAIL"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	// BrowseFetchLimit caps how many listings of one type are loaded before
	// the in-memory filter/paginate pipeline runs.
	BrowseFetchLimit int `mapstructure:"BROWSE_FETCH_LIMIT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "marketplace-service")
	v.SetDefault("HTTP_PORT", "8082")
	v.SetDefault("GRPC_PORT", "50052")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "marketplace")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_CACHE_TTL", time.Hour)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000") // MinIO endpoints come without a scheme
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "listings-media")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("JWT_SECRET", insecureJWTSecret)
	v.SetDefault("PROMETHEUS_METRICS_PORT", "9092")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_EMAIL", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("BROWSE_FETCH_LIMIT", 500)
}

// Load reads an optional .env file and then the process environment.
func Load(log *logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, relying on environment variables")
	}
	return load(viper.New(), log)
}

func load(v *viper.Viper, log *logger.Logger) (*Config, error) {
	setDefaults(v)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Error("Failed to unmarshal configuration", "error", err)
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.JWTSecret == insecureJWTSecret {
		log.Warn("JWT_SECRET is set to its default insecure value")
	}
	if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
		return nil, errors.New("MONGO_URI and MONGO_DATABASE are required")
	}
	if cfg.BrowseFetchLimit <= 0 {
		log.Warn("Invalid BROWSE_FETCH_LIMIT, using 500", "value", cfg.BrowseFetchLimit)
		cfg.BrowseFetchLimit = 500
	}

	log.Debug("Configuration loaded",
		"service_name", cfg.ServiceName,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"mongo_database", cfg.MongoDatabase,
		"minio_bucket", cfg.MinIOBucket,
		"nats_url", cfg.NATSURL,
		"otel_endpoint", cfg.OTExporterOTLPEndpoint,
	)
	return &cfg, nil
}
