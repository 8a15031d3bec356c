package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFiles - файлы, которые читаются перед окружением, если существуют
var DefaultEnvFiles = []string{"config.env", ".env"}

// ключ конфигурации -> переменная окружения
var envBindings = []struct {
	key    string
	envVar string
}{
	{"server.port", "PORT"},
	{"server.shutdown_timeout", "SHUTDOWN_TIMEOUT"},
	{"database.driver", "STORAGE_DRIVER"},
	{"database.url", "DATABASE_URL"},
	{"database.max_conns", "DB_MAX_CONNS"},
	{"database.min_conns", "DB_MIN_CONNS"},
	{"database.migrations_enabled", "MIGRATIONS_ENABLED"},
	{"grpc.port", "GRPC_PORT"},
	{"log.level", "LOG_LEVEL"},
	{"log.format", "LOG_FORMAT"},
	{"log.file", "LOG_FILE"},
	{"log.max_size_mb", "LOG_MAX_SIZE_MB"},
	{"log.max_backups", "LOG_MAX_BACKUPS"},
	{"log.max_age_days", "LOG_MAX_AGE_DAYS"},
	{"rabbitmq.url", "RABBITMQ_URL"},
	{"rabbitmq.exchange", "RABBITMQ_EXCHANGE"},
	{"redis.url", "REDIS_URL"},
	{"rate_limit.max", "RATE_LIMIT_MAX"},
	{"rate_limit.window", "RATE_LIMIT_WINDOW"},
	{"cors.allowed_origins", "CORS_ALLOWED_ORIGINS"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.migrations_enabled", true)
	v.SetDefault("grpc.port", 9090)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("rabbitmq.exchange", "task_audit")
	v.SetDefault("rate_limit.max", 100)
	v.SetDefault("rate_limit.window", "15m")
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load читает config.env/.env (если есть), затем окружение.
// Переменные окружения имеют приоритет над файлами.
func Load() (*Config, error) {
	return LoadFrom(DefaultEnvFiles...)
}

func LoadFrom(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", b.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// splitList раскладывает "a, b" из окружения и убирает пустые элементы
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
