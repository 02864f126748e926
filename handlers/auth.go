package handlers

import (
	"errors"
	"net/http"
	"time"

	"projtrack/auth"
	"projtrack/middleware"
	"projtrack/models"

	"github.com/gin-gonic/gin"
)

func Login(sessions SessionManager, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindError(err, "body"))
			return
		}

		session, err := sessions.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			respondError(c, err)
			return
		}

		maxAge := int(time.Until(session.ExpiresAt).Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, session.Token, maxAge, "/", "", secureCookie, true)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func Logout(sessions SessionManager, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessions.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
			respondError(c, err)
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", secureCookie, true)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
