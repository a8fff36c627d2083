package app

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/GFRDINDIA/Helper/internal/cache"
	"github.com/GFRDINDIA/Helper/internal/config"
	"github.com/GFRDINDIA/Helper/internal/controller"
	"github.com/GFRDINDIA/Helper/internal/events"
	"github.com/GFRDINDIA/Helper/internal/repo"
	"github.com/GFRDINDIA/Helper/internal/service"
	"github.com/GFRDINDIA/Helper/pkg/httpserver"
	"github.com/GFRDINDIA/Helper/pkg/postgres"
)

// Run wires the whole service together and blocks until shutdown.
// Redis and Kafka are optional at boot: without them the service falls
// back to direct reads and a no-op emitter.
func Run() {
	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	logger.Info("connecting database")
	postgresDB, err := postgres.NewDB(cfg.PostgresConn)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer postgresDB.Close()

	logger.Info("running migrations")
	runMigrations(postgresDB, cfg.MigrationsPath, logger)

	var statusCache service.StatusCache
	redisCache, err := cache.NewStatusCache(cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, status reads go straight to the database", zap.Error(err))
	} else {
		statusCache = redisCache
		defer redisCache.Close()
	}

	var emitter events.Emitter
	kafkaEmitter, err := events.NewKafkaEmitter(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		logger.Warn("kafka unavailable, events are dropped", zap.Error(err))
	} else {
		emitter = kafkaEmitter
		defer kafkaEmitter.Close()
	}

	repositories := repo.NewRepositories(postgresDB)
	services := service.NewServices(service.Deps{
		Repos:   repositories,
		Emitter: emitter,
		Cache:   statusCache,
		Logger:  logger,
		Limits: service.Limits{
			MaxBidsPerTask:  cfg.MaxBidsPerTask,
			DefaultRadiusKm: cfg.DefaultRadiusKm,
			MaxRadiusKm:     cfg.MaxRadiusKm,
			MaxPageSize:     cfg.MaxPageSize,
		},
	})

	handler := echo.New()
	handler.HideBanner = true
	controller.SetupRoutesHandlers(handler, services)

	logger.Info("starting server", zap.String("address", cfg.ServerAddress))
	httpServer := httpserver.New(handler, cfg.ServerAddress,
		httpserver.ShutdownTimeout(cfg.ShutdownTimeout))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		logger.Info("got signal", zap.String("signal", s.String()))
	case err = <-httpServer.Notify():
		logger.Error("server stopped", zap.Error(err))
	}

	logger.Info("shutting down")
	if err = httpServer.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error

	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}

	return logger
}

func runMigrations(postgresDB *postgres.Postgres, sourceURL string, logger *zap.Logger) {
	driver, err := pgmigrate.WithInstance(postgresDB.Database, &pgmigrate.Config{})
	if err != nil {
		logger.Fatal("migration driver init failed", zap.Error(err))
	}

	migrations, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		logger.Fatal("migration setup failed", zap.Error(err))
	}

	if err := migrations.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no change made by migration scripts")
			return
		}

		logger.Fatal("migration failed", zap.Error(err))
	}
}
