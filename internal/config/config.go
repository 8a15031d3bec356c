// Package config загружает настройки сервиса из окружения и .env файлов.
package config

import "time"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Log       LogConfig       `mapstructure:"log"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// STORAGE_DRIVER
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver            string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL               string `mapstructure:"url" validate:"required_if=Driver postgres"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"gt=0"`
	MinConns          int32  `mapstructure:"min_conns" validate:"gte=0,ltefield=MaxConns"`
	MigrationsEnabled bool   `mapstructure:"migrations_enabled"`
}

// GRPCConfig - порт 0 отключает gRPC сервер
type GRPCConfig struct {
	Port int `mapstructure:"port" validate:"gte=0,lt=65536"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	FilePath   string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gt=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// RabbitMQConfig - пустой URL отключает публикацию аудита
type RabbitMQConfig struct {
	URL      string `mapstructure:"url" validate:"omitempty,url"`
	Exchange string `mapstructure:"exchange" validate:"required"`
}

// RedisConfig - пустой URL означает счетчики rate limit в памяти процесса
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

type RateLimitConfig struct {
	Max    int           `mapstructure:"max" validate:"gt=0"`
	Window time.Duration `mapstructure:"window" validate:"gt=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"min=1"`
}
