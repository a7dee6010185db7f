package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/api"
	"github.com/carson-networks/project-ledger/internal/activity"
	"github.com/carson-networks/project-ledger/internal/attachment"
	"github.com/carson-networks/project-ledger/internal/auth"
	"github.com/carson-networks/project-ledger/internal/config"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/status"
	"github.com/carson-networks/project-ledger/internal/logging"
	"github.com/carson-networks/project-ledger/internal/operator"
	"github.com/carson-networks/project-ledger/internal/scheduler"
	"github.com/carson-networks/project-ledger/internal/service"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/memory"
	"github.com/carson-networks/project-ledger/internal/storage/postgres"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logrus.WithError(err).Fatal("config.LoadDotEnv")
		return
	}
	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}
	if err := envConfig.Validate(); err != nil {
		logrus.WithError(err).Fatal("config.Validate")
		return
	}

	logger := logging.SetupLogging(envConfig.LogLevel)
	logger.WithField("backend", envConfig.StorageBackend).Info("project-ledger starting")

	ctx := context.Background()
	store, db, err := openStorage(ctx, envConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("openStorage")
		return
	}
	defer func() { _ = store.Close() }()

	tokens := auth.NewTokens(envConfig.JWTSecret, 0)
	if envConfig.IssueAdminToken {
		admin, err := auth.IssueAdminToken(ctx, store.Read.Users, tokens, os.Stderr)
		if err != nil {
			logger.WithError(err).Error("auth.IssueAdminToken")
			_ = store.Close()
			os.Exit(1)
		}
		logger.WithField("userID", admin.ID.String()).Info("issued administrator token")
		return
	}

	op := operator.NewOperatorDelegator(store, envConfig.OperatorWorkers, logger)
	op.Start()

	sink, err := activitySink(envConfig, store)
	if err != nil {
		logger.WithError(err).Fatal("activitySink")
		return
	}
	recorder := activity.NewRecorder(sink, envConfig.ActivityQueue, logger)
	recorder.Start()

	uploader, err := attachment.NewLocalUploader(envConfig.AttachmentDir, envConfig.AttachmentBaseURL, envConfig.AttachmentTimeout, logger)
	if err != nil {
		logger.WithError(err).Fatal("attachment.NewLocalUploader")
		return
	}

	svc := service.NewService(service.Deps{
		Storage:       store,
		Operator:      op,
		Activity:      recorder,
		Rates:         rateProvider(envConfig, logger),
		Uploader:      uploader,
		Thresholds:    envConfig.ApprovalThresholds,
		BaseCurrency:  envConfig.BaseCurrency,
		WatchlistSize: envConfig.WatchlistSize,
		Logger:        logger,
	})

	if _, err := auth.Bootstrap(ctx, store, tokens, os.Stderr, logger); err != nil {
		logger.WithError(err).Fatal("auth.Bootstrap")
		return
	}

	sched := scheduler.New(svc.FixedCost, envConfig.FixedCostInterval, logger)
	sched.Start()

	var pinger status.Pinger
	if db != nil {
		pinger = db
	}
	httpRest := &api.Rest{
		Logger:        logger,
		Port:          envConfig.HTTPPort,
		Service:       svc,
		Tokens:        tokens,
		Users:         store.Read.Users,
		DB:            pinger,
		AttachmentDir: envConfig.AttachmentDir,
	}
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		httpRest.Serve()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	case <-serveDone:
		logger.Warn("HTTP server exited")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpRest.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HttpServer.Shutdown")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Scheduler.Stop")
	}
	op.Stop()
	if err := recorder.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Recorder.Stop")
	}
	logger.WithField("droppedActivity", recorder.Dropped()).Info("project-ledger stopped")
}

// openStorage returns the raw *sql.DB as well for the postgres backend so
// /status can ping it.
func openStorage(ctx context.Context, env *config.Config, logger *logrus.Logger) (*storage.Storage, *sql.DB, error) {
	if env.StorageBackend == config.BackendMemory {
		logger.Warn("using in-memory storage, data is lost on exit")
		return memory.NewStorage(), nil, nil
	}

	db, err := postgres.Open(ctx, env)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return postgres.NewStorage(db), db, nil
}

func activitySink(env *config.Config, store *storage.Storage) (activity.Sink, error) {
	switch env.ActivitySink {
	case config.SinkAMQP:
		return activity.NewAMQPSink(env.AMQPURL, env.AMQPExchange, env.AMQPQueue)
	case config.SinkKafka:
		return activity.NewKafkaSink(env.KafkaBrokers, env.KafkaTopic), nil
	case config.SinkNone:
		return activity.NopSink{}, nil
	default:
		return &activity.StoreSink{Storage: store}, nil
	}
}

func rateProvider(env *config.Config, logger *logrus.Logger) currency.Provider {
	if env.RateProviderURL == "" {
		logger.Info("no RATE_PROVIDER_URL, using static rates")
		return currency.StaticProvider{Table: env.StaticRates}
	}
	return currency.NewHTTPProvider(env.RateProviderURL, env.RateProviderTimeout, logger)
}
