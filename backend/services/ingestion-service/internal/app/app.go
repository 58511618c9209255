package app

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tempstream/backend/libs/db"
	libhttp "tempstream/backend/libs/httpserver"
	libkafka "tempstream/backend/libs/kafka"
	"tempstream/backend/services/ingestion-service/internal/config"
	httpserver "tempstream/backend/services/ingestion-service/internal/http"
	"tempstream/backend/services/ingestion-service/internal/http/handlers"
	"tempstream/backend/services/ingestion-service/internal/http/middleware"
	"tempstream/backend/services/ingestion-service/internal/publisher"
	"tempstream/backend/services/ingestion-service/internal/replay"
	"tempstream/backend/services/ingestion-service/internal/repository"
	"tempstream/backend/services/ingestion-service/internal/service"
)

// App wires ingestion service dependencies.
type App struct {
	server *libhttp.Server
	worker *replay.Worker
	db     *sql.DB
	writer *kafka.Writer
	logger *zap.Logger
}

// New constructs application components.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.Database.Migrate {
		if err := db.Migrate(cfg.Database.DSN, "up"); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.NewPostgresDB(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	// The broker may be down at start; ingestion keeps working through the fallback store.
	if err := libkafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions); err != nil {
		logger.Warn("could not ensure telemetry topic", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
	}

	writer, err := libkafka.NewWriter(libkafka.WriterConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		WriteTimeout: cfg.Kafka.PublishTimeout,
	}, logger)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	breaker := publisher.NewCircuitBreaker(publisher.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
	}, logger)
	kafkaPublisher := publisher.NewKafkaPublisher(writer, breaker, cfg.Kafka.PublishTimeout, logger)

	telemetryRepo := repository.NewTelemetryRepository(sqlDB)
	fallbackRepo := repository.NewFallbackRepository(sqlDB)
	ingestionService := service.NewIngestionService(telemetryRepo, fallbackRepo, kafkaPublisher, cfg.Database.Timeout, logger)
	worker := replay.NewWorker(fallbackRepo, kafkaPublisher, kafkaPublisher, cfg.Replay.Interval, cfg.ReplayPageSize(), logger.Named("replay"))

	routes := httpserver.Routes{
		Submit:  handlers.NewTelemetryHandler(ingestionService, logger),
		Health:  handlers.NewHealthHandler(sqlDB),
		Metrics: promhttp.Handler(),
	}
	if cfg.JWT.Secret != "" {
		routes.Auth = middleware.DeviceAuth(cfg.JWT.Secret)
	} else {
		logger.Warn("jwt secret not configured, telemetry submissions are unauthenticated")
	}

	router := httpserver.NewRouter(routes)
	server := libhttp.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server: server,
		worker: worker,
		db:     sqlDB,
		writer: writer,
		logger: logger,
	}, nil
}

// Run serves HTTP requests and replays fallback events until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(ctx) })
	g.Go(func() error { return a.worker.Run(ctx) })
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.logger.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
