package grpc

import (
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/grpc/middleware"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer builds the operational gRPC server: health checks and
// reflection, traced through the otelgrpc stats handler. The returned
// cleanup marks the service NOT_SERVING and stops the server gracefully.
func NewGRPCServer(appLogger *logger.Logger, serviceName string) (*grpc.Server, *health.Server, func()) {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			middleware.LoggingInterceptor(appLogger.Named("gRPC")),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(server)

	appLogger.Info("gRPC server configured", "services", "health, reflection", "interceptors", "otel stats, logging")

	cleanup := func() {
		appLogger.Info("Calling gRPC server's GracefulStop...")
		healthServer.Shutdown()
		server.GracefulStop()
		appLogger.Info("gRPC server GracefulStop completed.")
	}
	return server, healthServer, cleanup
}
