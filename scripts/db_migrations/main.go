package main

import (
	"context"

	"github.com/sirupsen/logrus"

	server_config "github.com/carson-networks/project-ledger/internal/config"
	"github.com/carson-networks/project-ledger/internal/logging"
	"github.com/carson-networks/project-ledger/internal/storage/postgres"
)

func main() {
	if err := server_config.LoadDotEnv(); err != nil {
		logrus.WithError(err).Fatal("LoadDotEnv")
		return
	}
	env, err := server_config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("ProcessEnvironmentVariables")
		return
	}
	logger := logging.SetupLogging(env.LogLevel)

	db, err := postgres.Open(context.Background(), env)
	if err != nil {
		logger.WithError(err).Fatal("postgres.Open")
		return
	}
	defer func() { _ = db.Close() }()

	if err := postgres.Migrate(db, logger); err != nil {
		logger.WithError(err).Fatal("postgres.Migrate")
	}
}
