package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"time"

	"github.com/St1cky1/task-manager-api/internal/usecase"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

type GRPCServer struct {
	taskServer *TaskServer
	logger     *slog.Logger
	server     *grpc.Server
	health     *health.Server
}

func NewGRPCServer(taskService *usecase.TaskService, logger *slog.Logger) *GRPCServer {
	logger = logger.With(slog.String("component", "grpc"))
	s := &GRPCServer{
		taskServer: NewTaskServer(taskService, logger),
		logger:     logger,
		health:     health.NewServer(),
	}

	s.server = grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor),
	)
	RegisterTaskServiceServer(s.server, s.taskServer)
	healthpb.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s.server)

	return s
}

// Server - для подключения через bufconn в тестах
func (s *GRPCServer) Server() *grpc.Server {
	return s.server
}

func (s *GRPCServer) Start(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.logger.Info("gRPC server listening", slog.Int("port", port))
	return s.Serve(lis)
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any,
	info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	attrs := []slog.Attr{
		slog.String("method", info.FullMethod),
		slog.String("code", code.String()),
		slog.Duration("duration", time.Since(start)),
	}
	switch code {
	case codes.OK:
		s.logger.LogAttrs(ctx, slog.LevelInfo, "grpc request", attrs...)
	case codes.Internal, codes.Unknown:
		s.logger.LogAttrs(ctx, slog.LevelError, "grpc request", append(attrs, slog.String("error", err.Error()))...)
	default:
		s.logger.LogAttrs(ctx, slog.LevelWarn, "grpc request", append(attrs, slog.String("error", err.Error()))...)
	}
	return resp, err
}

func (s *GRPCServer) recoveryInterceptor(ctx context.Context, req any,
	info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in grpc handler",
				slog.String("method", info.FullMethod),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = status.Error(codes.Internal, "An unexpected error occurred on the server. Please try again later.")
		}
	}()
	return handler(ctx, req)
}
