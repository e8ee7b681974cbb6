// Package server wires the gradesync runtime: the HTTP API and feed, the
// document store, and the gRPC health lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/boulderlog/internal/platform/config"
	"github.com/louisbranch/boulderlog/internal/platform/logging"
	"github.com/louisbranch/boulderlog/internal/platform/timeouts"
	gradesyncsqlite "github.com/louisbranch/boulderlog/internal/services/gradesync/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name reported for the feed.
const HealthService = "boulderlog.gradesync.v1.GradeSystemFeed"

type serverEnv struct {
	DBPath string `env:"BOULDERLOG_GRADESYNC_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "gradesync.db")
	}
	return cfg
}

// Server hosts the gradesync HTTP API, feed and health endpoints.
type Server struct {
	listener     net.Listener
	grpcListener net.Listener
	httpServer   *http.Server
	grpcServer   *grpc.Server
	health       *health.Server
	hub          *Hub
	store        *gradesyncsqlite.Store
	logger       *slog.Logger
}

// New creates a configured server listening on the provided ports.
func New(httpPort, grpcPort int, logger *slog.Logger) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", httpPort), fmt.Sprintf(":%d", grpcPort), logger)
}

// NewWithAddr creates a configured server for the provided addresses.
func NewWithAddr(httpAddr, grpcAddr string, logger *slog.Logger) (*Server, error) {
	logger = logging.OrDiscard(logger)
	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", httpAddr, err)
	}
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen on %s: %w", grpcAddr, err)
	}

	env := loadServerEnv()
	store, err := openDocumentStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		_ = grpcListener.Close()
		return nil, err
	}

	metrics := NewMetrics()
	hub := NewHub(metrics, logger)
	httpServer := &http.Server{
		Handler:           NewHandler(store, hub, metrics, logger),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:     listener,
		grpcListener: grpcListener,
		httpServer:   httpServer,
		grpcServer:   grpcServer,
		health:       healthServer,
		hub:          hub,
		store:        store,
		logger:       logger,
	}, nil
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GRPCAddr returns the gRPC health listener address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a gradesync server until context cancellation.
func Run(ctx context.Context, httpPort, grpcPort int, logger *slog.Logger) error {
	server, err := New(httpPort, grpcPort, logger)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the HTTP and gRPC servers until context cancellation or the
// first server failure.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.logger.Info("gradesync listening", "http", s.Addr(), "grpc", s.GRPCAddr())
	serveErr := make(chan error, 2)
	go func() {
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve HTTP: %w", err)
			return
		}
		serveErr <- nil
	}()
	go func() {
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("serve gRPC: %w", err)
			return
		}
		serveErr <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	s.health.Shutdown()
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown HTTP: %w", err)
	}
	s.grpcServer.GracefulStop()
	return runErr
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("close gradesync store", "error", err)
		}
	}
}

func openDocumentStore(path string) (*gradesyncsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := gradesyncsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gradesync sqlite store: %w", err)
	}
	return store, nil
}
