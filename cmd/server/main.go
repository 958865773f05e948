package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/dispatch/internal/api"
	"github.com/ignite/dispatch/internal/config"
	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/events"
	"github.com/ignite/dispatch/internal/pkg/logger"
	"github.com/ignite/dispatch/internal/repository/postgres"
	"github.com/ignite/dispatch/internal/sender"
	"github.com/ignite/dispatch/internal/service/group"
	"github.com/ignite/dispatch/internal/service/sendconfig"
	"github.com/ignite/dispatch/internal/service/suppression"
	"github.com/ignite/dispatch/internal/service/template"
	"github.com/ignite/dispatch/internal/service/tenant"
	"github.com/ignite/dispatch/internal/worker"
)

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
	groupRepo := postgres.NewGroupRepo(db)
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

	tenants := tenant.NewService(tenantRepo)
	configs := sendconfig.NewService(configRepo, tenantRepo)
	templates := template.NewService(templateRepo)
	groups := group.NewService(groupRepo, templateRepo, recorder)
	suppressions := suppression.NewService(suppressionRepo)

	if cfg.SMTP.Host != "" {
		seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, _, err := configs.SeedGlobal(seedCtx, sendconfig.CreateInput{
			Provider:    domain.ProviderSMTP,
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Secure:      cfg.SMTP.Secure,
			User:        cfg.SMTP.User,
			Pass:        cfg.SMTP.Pass,
			FromAddress: cfg.SMTP.FromAddress,
			FromName:    cfg.SMTP.FromName,
			CreatedBy:   "bootstrap",
		})
		cancel()
		if err != nil {
			logger.Error("Failed to seed GLOBAL sending config", "error", err.Error())
			os.Exit(1)
		}
	}

	var rateStore worker.RateStore
	if cfg.Redis.URL != "" {
		rs, err := worker.NewRedisRateStoreFromURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err.Error())
			os.Exit(1)
		}
		rateStore = rs
	} else {
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
	defer runner.Stop()

	handlers := api.NewHandlers(tenants, configs, templates, groups, suppressions, eventRepo, pipeline)
	server := api.NewServer(cfg.Server, handlers)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "error", err.Error())
	}
}
