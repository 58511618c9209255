package app

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tempstream/backend/libs/db"
	libhttp "tempstream/backend/libs/httpserver"
	libkafka "tempstream/backend/libs/kafka"
	libredis "tempstream/backend/libs/redis"
	"tempstream/backend/services/projection-service/internal/cache"
	"tempstream/backend/services/projection-service/internal/config"
	"tempstream/backend/services/projection-service/internal/consumer"
	httpserver "tempstream/backend/services/projection-service/internal/http"
	"tempstream/backend/services/projection-service/internal/http/handlers"
	"tempstream/backend/services/projection-service/internal/repository"
	"tempstream/backend/services/projection-service/internal/service"
)

// App wires projection-service dependencies.
type App struct {
	server      *libhttp.Server
	runner      *consumer.Runner
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
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

	readerCfg, err := libkafka.NewReaderConfig(libkafka.ReaderConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}, logger)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	var (
		redisClient *redis.Client
		// Interface values stay nil when the cache is off.
		updaterCache consumer.Cache
		readCache    service.Cache
	)
	if cfg.CacheEnabled() {
		redisClient, err = libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis unavailable, serving reads from postgres only", zap.Error(err))
			redisClient = nil
		} else {
			store := cache.NewStore(redisClient, cfg.CacheTTL())
			updaterCache, readCache = store, store
		}
	}

	projectionRepo := repository.NewProjectionRepository(sqlDB)
	updater := consumer.NewUpdater(projectionRepo, updaterCache, logger.Named("updater"))
	newReader := func() consumer.MessageReader { return kafka.NewReader(readerCfg) }
	runner := consumer.NewRunner(newReader, updater, cfg.Kafka.Consumers, cfg.Kafka.RejoinBackoff, logger.Named("consumer"))

	projectionService := service.NewProjectionService(projectionRepo, readCache, logger)

	routes := httpserver.Routes{
		Devices: handlers.NewDevicesHandler(projectionService, logger),
		Device:  handlers.NewDeviceHandler(projectionService, logger),
		Health:  handlers.NewHealthHandler(sqlDB),
		Metrics: promhttp.Handler(),
	}

	router := httpserver.NewRouter(routes)
	server := libhttp.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		runner:      runner,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run serves HTTP requests and consumes telemetry events until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(ctx) })
	g.Go(func() error { return a.runner.Run(ctx) })
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
