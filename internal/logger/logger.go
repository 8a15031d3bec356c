// Package logger настраивает slog: уровень, формат и ротацию файла логов.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/St1cky1/task-manager-api/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New создает логгер по конфигурации и делает его логгером по умолчанию.
// Возвращаемый io.Closer закрывает файл логов (если он используется).
func New(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	writer, closer, err := output(cfg, os.Stdout)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(newHandler(writer, cfg))
	slog.SetDefault(logger)
	return logger, closer, nil
}

func newHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func output(cfg config.LogConfig, stdout io.Writer) (io.Writer, io.Closer, error) {
	if cfg.FilePath == "" {
		return stdout, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, err
	}
	file := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	return io.MultiWriter(stdout, file), file, nil
}

// ParseLevel - неизвестный уровень считается info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
