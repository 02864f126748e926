package handlers

import (
	"context"
	"net/http"
	"time"

	"projtrack/middleware"

	"github.com/gin-gonic/gin"
)

func HealthCheck(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			middleware.Logger(c).WithError(err).Warn("Health check: database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     "unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"db":     "ok",
		})
	}
}
