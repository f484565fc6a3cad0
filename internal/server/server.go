package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/elskow/account-service/internal/account"
	"github.com/elskow/account-service/internal/auth"
	"github.com/elskow/account-service/internal/config"
)

const serviceName = "account.Account"

// Server runs the HTTP API and a gRPC listener that serves only the standard
// health service.
type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	AccountHandler *account.Handler
	AuthMiddleware *auth.AuthMiddleware
}

func NewServer(p Params) *Server {
	router := NewRouter(p.Config, p.AccountHandler, p.AuthMiddleware, p.Logger)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(p.Config.Server.Host, p.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  p.Config.HTTP.ReadTimeout,
		WriteTimeout: p.Config.HTTP.WriteTimeout,
		ErrorLog:     zap.NewStdLog(p.Logger.Named("http")),
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if p.Config.GRPC.EnableReflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		config:     p.Config,
		log:        p.Logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		health:     healthServer,
	}
}

// Start binds both listeners and serves until Stop is called. Bind errors are
// returned synchronously.
func (s *Server) Start() error {
	httpLis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	grpcAddr := net.JoinHostPort(s.config.Server.Host, s.config.GRPC.Port)
	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.log.Info("Starting servers",
		zap.String("http_address", s.httpServer.Addr),
		zap.String("grpc_address", grpcAddr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	go func() {
		if err := s.grpcServer.Serve(grpcLis); err != nil {
			s.log.Error("gRPC server stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("prefix", config.HTTP.Prefix)
		enc.AddBool("reflection_enabled", config.GRPC.EnableReflection)
		enc.AddBool("migrate_on_start", config.Database.MigrateOnStart)
		enc.AddString("hash_scheme", config.Hashing.Scheme)
		return nil
	})
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down servers")
	s.health.Shutdown()

	if s.config.HTTP.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.HTTP.ShutdownTimeout)
		defer cancel()
	}

	err := s.httpServer.Shutdown(ctx)
	s.grpcServer.GracefulStop()
	return err
}
