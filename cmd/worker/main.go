package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/dispatch/internal/config"
	"github.com/ignite/dispatch/internal/events"
	"github.com/ignite/dispatch/internal/pkg/logger"
	"github.com/ignite/dispatch/internal/repository/postgres"
	"github.com/ignite/dispatch/internal/sender"
	"github.com/ignite/dispatch/internal/service/sendconfig"
	"github.com/ignite/dispatch/internal/service/suppression"
	"github.com/ignite/dispatch/internal/worker"
)

// Standalone dispatch worker. Runs the same pipeline the API server embeds,
// for deployments that scale sending separately from the HTTP surface.
// Optimistic group claims keep concurrent instances from double-sending.
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err.Error())
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	tenantRepo := postgres.NewTenantRepo(db)
	configRepo := postgres.NewSendConfigRepo(db)
	templateRepo := postgres.NewTemplateRepo(db)
	suppressionRepo := postgres.NewSuppressionRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	workerStore := postgres.NewWorkerStore(db)

	var publisher events.Publisher
	if cfg.AMQP.URL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err.Error())
			os.Exit(1)
		}
		defer pub.Close()
		publisher = pub
	}
	recorder := events.NewRecorder(eventRepo, publisher)

	configs := sendconfig.NewService(configRepo, tenantRepo)
	suppressions := suppression.NewService(suppressionRepo)

	var rateStore worker.RateStore
	if cfg.Redis.URL != "" {
		rs, err := worker.NewRedisRateStoreFromURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err.Error())
			os.Exit(1)
		}
		rateStore = rs
	} else {
		logger.Warn("No Redis configured, rate limits are per-process only")
		rateStore = worker.NewMemoryRateStore()
	}
	limiter := worker.NewRateLimiter(rateStore, cfg.Batch.MaxEmailsPerHour, cfg.Batch.MaxEmailsPerDay)

	pipeline := worker.NewPipeline(
		workerStore,
		configs,
		sender.NewRouter(),
		suppressions,
		templateRepo,
		recorder,
		limiter,
		cfg.Batch,
		cfg.Worker.LimitGroups,
	)
	pipeline.SetTrackingBase(cfg.Tracking.BaseURL)
	runner := worker.NewRunner(pipeline, cfg.Worker.TickInterval())
	runner.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Stopping worker")
	runner.Stop()
}
