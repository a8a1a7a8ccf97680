package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcAdapter "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/grpc"
	natsAdapter "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/cache"
	mongoRepo "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/rest"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/tracer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	appLogger := logger.NewLogger()
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.Load(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", "error", err)
	}
	appLogger = appLogger.With("service", cfg.ServiceName)
	appLogger.Info("Application starting...", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	if cfg.OTExporterOTLPEndpoint != "" {
		tp, err := tracer.InitTracer(context.Background(), cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize tracer", "error", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()
	} else {
		appLogger.Info("OpenTelemetry Tracer not initialized (OTEL_EXPORTER_OTLP_ENDPOINT not set).")
	}

	// MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", "error", err)
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		cancelPing()
		appLogger.Fatal("Failed to ping MongoDB", "error", err)
	}
	cancelPing()
	db := mongoClient.Database(cfg.MongoDatabase)
	appLogger.Info("Successfully connected and pinged MongoDB.", "database", cfg.MongoDatabase)

	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)

	// Repositories, with the Redis cache in front of listing reads when Redis is up.
	var listingRepo domain.ListingRepository = mongoRepo.NewListingRepository(db, appLogger)
	redisCtx, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := cache.NewRedisClient(redisCtx, cfg.RedisAddress)
	cancelRedis()
	if err != nil {
		appLogger.Warn("Redis unavailable, listing cache disabled", "address", cfg.RedisAddress, "error", err)
	} else {
		defer redisClient.Close()
		listingRepo = cache.NewCachedListingRepository(listingRepo, redisClient, cfg.RedisCacheTTL, appLogger)
		appLogger.Info("Listing cache enabled", "address", cfg.RedisAddress, "ttl", cfg.RedisCacheTTL.String())
	}
	favoriteRepo := mongoRepo.NewFavoriteRepository(db, appLogger)
	userRepo := mongoRepo.NewUserRepository(db, appLogger)

	// Object storage
	storageCtx, cancelStorage := context.WithTimeout(context.Background(), 10*time.Second)
	blobStore, err := s3.NewS3Storage(storageCtx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	cancelStorage()
	if err != nil {
		appLogger.Fatal("Failed to initialize S3 storage", "error", err)
	}

	// NATS
	natsConn, err := natsAdapter.Connect(cfg.NATSURL, appLogger, cfg.ServiceName)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", "error", err)
	}
	publisher := natsAdapter.NewPublisher(natsConn, appLogger)
	defer publisher.Close()

	// Usecases
	mediaStore := usecase.NewMediaStore(blobStore, metricsManager, appLogger)
	listingUsecase := usecase.NewListingUsecase(listingRepo, favoriteRepo, mediaStore, publisher, cfg.BrowseFetchLimit, appLogger)
	formFactory := usecase.NewFormFactory(listingRepo, mediaStore, publisher, metricsManager, appLogger)
	favoriteUsecase := usecase.NewFavoriteUsecase(favoriteRepo, listingRepo, appLogger)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword, appLogger)
	notificationUsecase := usecase.NewNotificationUsecase(userRepo, smtpMailer, appLogger)

	subscriber := natsAdapter.NewSubscriber(natsConn, appLogger)
	if err := subscriber.Subscribe(domain.SubjectListingCreated, notificationUsecase.HandleListingCreated); err != nil {
		appLogger.Fatal("Failed to subscribe to listing events", "error", err)
	}
	defer subscriber.Unsubscribe()

	// HTTP API
	handler := rest.NewHandler(listingUsecase, formFactory, favoriteUsecase, appLogger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           rest.NewRouter(handler, cfg.JWTSecret, metricsManager, appLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", "error", err)
		}
	}()

	// gRPC health and reflection
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		appLogger.Fatal("Failed to listen for gRPC", "port", cfg.GRPCPort, "error", err)
	}
	grpcServer, healthServer, stopGRPC := grpcAdapter.NewGRPCServer(appLogger, cfg.ServiceName)
	go func() {
		appLogger.Info("Starting gRPC server", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			appLogger.Fatal("gRPC server Serve error", "error", err)
		}
	}()

	go func() {
		if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Prometheus metrics server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", "signal", sig.String())

	healthServer.SetServingStatus(cfg.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	appLogger.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	}
	stopGRPC()

	appLogger.Info("Application shutting down...")
}
