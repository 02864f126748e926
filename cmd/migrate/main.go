package main

import (
	"context"
	"fmt"
	"time"

	"projtrack/config"
	"projtrack/database"
	"projtrack/logging"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadForCLI()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Migration failed")
	}

	fmt.Println("\nAll migrations completed!")
}

// run applies pending migrations. The pool is closed before returning so a
// failure never leaves connections open behind a fatal exit.
func run(cfg *config.Config, logger logrus.FieldLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBWaitTimeout)
	db, err := database.WaitForDB(ctx, cfg.DatabaseURL, time.Second, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	return db.Migrate(context.Background())
}
