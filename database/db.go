package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	// ErrNotFound is returned (wrapped) when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when creating a user whose username exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidFilter is returned when a listing filter cannot be applied.
	ErrInvalidFilter = errors.New("invalid filter")
)

type DB struct {
	Pool *pgxpool.Pool
	log  logrus.FieldLogger
}

func Connect(ctx context.Context, databaseURL string, logger logrus.FieldLogger) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")
	return &DB{Pool: pool, log: logger}, nil
}

// WaitForDB retries Connect once per interval until it succeeds or ctx is done.
// Used at startup when the database container may still be booting.
func WaitForDB(ctx context.Context, databaseURL string, interval time.Duration, logger logrus.FieldLogger) (*DB, error) {
	for attempt := 1; ; attempt++ {
		db, err := Connect(ctx, databaseURL, logger)
		if err == nil {
			return db, nil
		}

		logger.WithError(err).WithField("attempt", attempt).Warn("Database not ready")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database not ready after %d attempts: %w", attempt, err)
		case <-time.After(interval):
		}
	}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() {
	db.Pool.Close()
	db.log.Info("Database connection closed")
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}
