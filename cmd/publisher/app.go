package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"content_publisher/internal/config"
	"content_publisher/internal/destination"
	"content_publisher/internal/destination/telegraph"
	"content_publisher/internal/destination/writeas"
	"content_publisher/internal/platform"
	"content_publisher/internal/publisher"
	"content_publisher/internal/service"
	"content_publisher/internal/storage/postgres"
)

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db        *sqlx.DB
	registry  *platform.Registry
	contents  *postgres.ContentStore
	links     *postgres.LinkStore
	campaigns *postgres.CampaignStore
	txManager *postgres.TransactionManager

	events   service.EventPublisher
	rabbitMQ *publisher.RabbitMQ
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config, withEvents bool) (*app, error) {
	logger := setupLogger(cfg.LogLevel)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := postgres.Open(connectCtx, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")

	a := &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		registry:  platform.NewRegistry(cfg.Descriptors()),
		contents:  postgres.NewContentStore(db),
		links:     postgres.NewLinkStore(db),
		campaigns: postgres.NewCampaignStore(db),
		txManager: postgres.NewTransactionManager(db),
	}

	if withEvents {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.rabbitMQ = rabbitMQ
		a.events = rabbitMQ
	}

	logger.Debug("platform catalog loaded", "active", len(a.registry.ListActive()))

	return a, nil
}

func (a *app) Close() {
	if a.rabbitMQ != nil {
		if err := a.rabbitMQ.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) tracker() *service.CompletionTracker {
	return service.NewCompletionTracker(a.registry, a.links, a.campaigns, a.events, a.logger)
}

func (a *app) orchestrator(cfg config.BatchConfig) *service.BatchOrchestrator {
	return service.NewBatchOrchestrator(adjuster, a.contents, a.events, a.logger, cfg)
}

func (a *app) destinations() []service.Destination {
	d := a.cfg.Destinations
	client := destination.NewClient(destination.Config{
		Timeout:        d.Timeout,
		MaxAttempts:    d.Retry.MaxAttempts,
		InitialBackoff: d.Retry.InitialBackoff,
		MaxBackoff:     d.Retry.MaxBackoff,
	}, a.logger)

	return []service.Destination{
		telegraph.New(telegraph.Config{
			BaseURL:     d.Telegraph.BaseURL,
			AccessToken: d.Telegraph.AccessToken,
			ShortName:   d.Telegraph.ShortName,
			AuthorName:  d.Telegraph.AuthorName,
		}, client, a.logger),
		writeas.New(writeas.Config{
			BaseURL: d.WriteAs.BaseURL,
			Token:   d.WriteAs.Token,
		}, client, a.logger),
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
