package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/greenlight-backend/internal/data/cache"
	"github.com/yungbote/greenlight-backend/internal/data/db"
	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/envutil"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
	"github.com/yungbote/greenlight-backend/internal/services"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Port         string
	LogMode      string
	AllowOrigins []string
	CacheTTL     time.Duration
	Postgres     db.PostgresConfig
	Redis        RedisConfig
	Auth         services.AuthConfig
	Otel         observability.OtelConfig
}

// LoadDotEnv reads .env (or the files named in ENV_FILE) when present.
// Variables already set in the environment win.
func LoadDotEnv(log *logger.Logger) {
	files := envutil.List("ENV_FILE", []string{".env"})
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return
	}
	if err := godotenv.Load(existing...); err != nil && log != nil {
		log.Warn("failed to load env files", "files", strings.Join(existing, ","), "error", err)
	}
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:         envutil.String("PORT", "8080"),
		LogMode:      envutil.String("LOG_MODE", "development"),
		AllowOrigins: envutil.List("CORS_ALLOW_ORIGINS", nil),
		CacheTTL:     envutil.Duration("CACHE_TTL", cache.DefaultTTL),
		Postgres: db.PostgresConfig{
			DSN:           envutil.String("POSTGRES_DSN", ""),
			Host:          envutil.String("POSTGRES_HOST", "localhost"),
			Port:          envutil.String("POSTGRES_PORT", "5432"),
			User:          envutil.String("POSTGRES_USER", "postgres"),
			Password:      envutil.String("POSTGRES_PASSWORD", ""),
			Name:          envutil.String("POSTGRES_NAME", "greenlight"),
			SSLMode:       envutil.String("POSTGRES_SSLMODE", "disable"),
			SlowThreshold: envutil.Duration("POSTGRES_SLOW_THRESHOLD", time.Second),
			MaxOpenConns:  envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:  envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		Auth: services.AuthConfig{
			JWTSecret: envutil.String("AUTH_JWT_SECRET", ""),
			Issuer:    envutil.String("AUTH_JWT_ISSUER", ""),
			Audience:  envutil.String("AUTH_JWT_AUDIENCE", ""),
			Leeway:    envutil.Duration("AUTH_JWT_LEEWAY", 30*time.Second),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "greenlight-api"),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development"),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: float64(envutil.Int("OTEL_SAMPLE_PERCENT", 100)) / 100,
		},
	}
	if log != nil && strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		log.Warn("AUTH_JWT_SECRET is not set; every authenticated request will be rejected")
	}
	return cfg
}
