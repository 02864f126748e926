package main

import (
	"context"
	"time"

	"projtrack/auth"
	"projtrack/config"
	"projtrack/database"
	"projtrack/handlers"
	"projtrack/logging"
	"projtrack/middleware"
	"projtrack/policy"
	"projtrack/schema"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	logger, err := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		JSON:  cfg.IsProduction(),
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}

	// The database container may still be starting when we boot.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBWaitTimeout)
	db, err := database.WaitForDB(ctx, cfg.DatabaseURL, time.Second, logger)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	revoker, closeRevoker := newRevoker(cfg, logger)
	defer closeRevoker()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := newEngine(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Invalid TRUSTED_PROXIES")
	}

	handlers.Register(r, handlers.Deps{
		DB:           db,
		Store:        db,
		Mapper:       schema.NewMapper(db),
		Policy:       policy.NewRoleBased(logger),
		Sessions:     auth.New(db, revoker, cfg.SessionSecret, cfg.SessionTTL, logger),
		LoginLimiter: middleware.NewRateLimiter(rate.Limit(cfg.LoginRateLimit), cfg.LoginRateBurst),
		CookieSecure: cfg.SessionCookieSecure,
	})

	logger.WithField("port", cfg.Port).Info("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}

// newEngine builds the router with the middleware every route shares.
// Client IPs come from forwarding headers only when the peer is a
// configured proxy, so the login throttle cannot be dodged by forging them.
func newEngine(cfg *config.Config, logger logrus.FieldLogger) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(gin.Recovery(), middleware.RequestID(logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	return r, nil
}

// newRevoker connects to Redis when configured. Without it sessions cannot
// be revoked before they expire.
func newRevoker(cfg *config.Config, logger logrus.FieldLogger) (auth.Revoker, func()) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set; logout will not revoke sessions")
		return auth.NopRevoker{}, func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Fatal("Invalid REDIS_URL")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	logger.Info("Redis connection established")
	return auth.NewRedisRevoker(client), func() { client.Close() }
}
