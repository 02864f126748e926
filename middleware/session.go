package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"projtrack/auth"
	"projtrack/models"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "sessionid"
	userKey       = "user"
	tokenKey      = "session_token"
)

// SessionVerifier resolves a session token to its user.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// Session attaches the caller to the context when the request carries a
// valid session. Requests without one continue anonymously so the policy
// can reject them per operation. A stale cookie does not mask a valid
// Bearer header.
func Session(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, token := range extractTokens(c) {
			user, err := verifier.Verify(c.Request.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidSession) {
					Logger(c).WithError(err).Error("Session verification failed")
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify session"})
					c.Abort()
					return
				}
				Logger(c).WithError(err).Debug("Ignoring invalid session")
				continue
			}

			c.Set(userKey, user)
			c.Set(tokenKey, token)
			break
		}
		c.Next()
	}
}

// AuthRequired rejects requests that Session did not authenticate.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			Logger(c).WithField("path", c.Request.URL.Path).Warn("Unauthorized access attempt")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil when anonymous.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// SessionToken returns the token the caller authenticated with.
func SessionToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// extractTokens returns the session cookie and the Bearer header token, in
// that order, skipping whichever is absent.
func extractTokens(c *gin.Context) []string {
	var tokens []string
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		tokens = append(tokens, cookie)
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		if token := strings.TrimSpace(parts[1]); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
