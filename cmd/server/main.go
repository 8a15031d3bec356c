package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/St1cky1/task-manager-api/internal/api"
	grpcapi "github.com/St1cky1/task-manager-api/internal/api/grpc"
	apimw "github.com/St1cky1/task-manager-api/internal/api/middleware"
	"github.com/St1cky1/task-manager-api/internal/config"
	"github.com/St1cky1/task-manager-api/internal/infrastructure/client"
	"github.com/St1cky1/task-manager-api/internal/logger"
	"github.com/St1cky1/task-manager-api/internal/repository"
	"github.com/St1cky1/task-manager-api/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище задач
	taskRepo, closeRepo, err := newTaskRepository(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	// Публикация аудита в RabbitMQ (опционально)
	var publisher usecase.AuditPublisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := client.NewRabbitMQClient(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rabbitMQ.Close()
		publisher = rabbitMQ
		log.Info("connected to rabbitmq", slog.String("exchange", cfg.RabbitMQ.Exchange))
	}

	// Rate limit: Redis, если задан, иначе счетчики в памяти
	var limiter apimw.Limiter = apimw.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	if cfg.Redis.URL != "" {
		redisLimiter, closeRedis, err := newRedisLimiter(ctx, cfg)
		if err != nil {
			log.Warn("redis unavailable, using in-memory rate limiter", slog.String("error", err.Error()))
		} else {
			defer closeRedis()
			limiter = redisLimiter
			log.Info("connected to redis")
		}
	}

	taskService := usecase.NewTaskService(taskRepo, publisher, log)

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(api.RouterDeps{
			TaskService: taskService,
			Limiter:     limiter,
			CORS:        cfg.CORS,
			Logger:      log,
		}),
	}

	var (
		wg      sync.WaitGroup
		errChan = make(chan error, 2)
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("HTTP server listening", slog.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	var grpcServer *grpcapi.GRPCServer
	if cfg.GRPC.Port != 0 {
		grpcServer = grpcapi.NewGRPCServer(taskService, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := grpcServer.Start(cfg.GRPC.Port); err != nil {
				errChan <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	// Ждем сигнал завершения или ошибку сервера
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case runErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", slog.String("error", err.Error()))
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}
	wg.Wait()

	log.Info("application stopped")
	return runErr
}

func newTaskRepository(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (repository.ITaskRepository, func(), error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory task storage, data is lost on restart")
		return repository.NewMemoryTaskRepository(), func() {}, nil
	}

	if cfg.MigrationsEnabled {
		if err := client.RunMigrations(cfg.URL, log); err != nil {
			return nil, nil, err
		}
	}

	db, err := client.NewPostgresClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to database")

	return repository.NewTaskRepository(db.Pool), db.Close, nil
}

func newRedisLimiter(ctx context.Context, cfg *config.Config) (apimw.Limiter, func(), error) {
	redisClient, err := client.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}

	limiter, err := apimw.NewRedisLimiter(redisClient, cfg.RateLimit.Max, cfg.RateLimit.Window)
	if err != nil {
		redisClient.Close()
		return nil, nil, err
	}
	return limiter, func() { redisClient.Close() }, nil
}
