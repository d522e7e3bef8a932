package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServiceName is the name reported by the gRPC health service.
const HealthServiceName = "guarantee-messaging"

// Server wraps a gRPC server for the messaging service.
type Server struct {
	server *grpc.Server
	health *health.Server
	logger *slog.Logger
	port   int
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	reflection bool
	grpcOpts   []grpc.ServerOption
}

// WithReflection registers the reflection service.
func WithReflection(enabled bool) ServerOption {
	return func(o *serverOptions) { o.reflection = enabled }
}

// WithGRPCOptions passes options such as credentials to grpc.NewServer.
func WithGRPCOptions(opts ...grpc.ServerOption) ServerOption {
	return func(o *serverOptions) { o.grpcOpts = append(o.grpcOpts, opts...) }
}

func NewServer(handler MessagingServiceServer, port int, logger *slog.Logger, opts ...ServerOption) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	srv := grpc.NewServer(o.grpcOpts...)

	healthSrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthSrv)
	healthSrv.SetServingStatus(HealthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	RegisterMessagingServiceServer(srv, handler)

	if o.reflection {
		reflection.Register(srv)
	}

	return &Server{
		server: srv,
		health: healthSrv,
		port:   port,
		logger: logger,
	}
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.Serve(ctx, lis)
}

// Serve runs the server on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("gRPC server starting", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down gRPC server")
		s.Stop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop reports NOT_SERVING to health probes and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
