// Package auth issues and verifies login sessions.
//
// A session is an HS256 JWT whose subject is the user id. The user is
// reloaded on every verification so deactivation and staff changes apply
// to sessions already handed out.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"projtrack/database"
	"projtrack/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "projtrack"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

// UserStore is the subset of the store the authenticator reads.
type UserStore interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Session is a freshly issued login token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type Authenticator struct {
	users   UserStore
	revoker Revoker
	secret  []byte
	ttl     time.Duration
	log     logrus.FieldLogger
	now     func() time.Time
}

func New(users UserStore, revoker Revoker, secret string, ttl time.Duration, logger logrus.FieldLogger) *Authenticator {
	if revoker == nil {
		revoker = NopRevoker{}
	}
	return &Authenticator{
		users:   users,
		revoker: revoker,
		secret:  []byte(secret),
		ttl:     ttl,
		log:     logger,
		now:     time.Now,
	}
}

// TTL is how long an issued session stays valid.
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Login checks username and password and issues a session.
// Unknown users, inactive users and wrong passwords all yield ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			a.log.WithField("username", username).Warn("Login failed: unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.IsActive {
		a.log.WithField("username", username).Warn("Login failed: inactive user")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		a.log.WithField("username", username).Warn("Login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   strconv.FormatInt(user.ID, 10),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	a.log.WithFields(logrus.Fields{"user": user.Username, "user_id": user.ID}).Info("User logged in")
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Verify resolves a session token to its active user.
func (a *Authenticator) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := a.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidSession
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidSession
	}

	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidSession
	}

	return user, nil
}

// Logout revokes token for the rest of its lifetime.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	claims, err := a.parse(token)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Time.Sub(a.now())
	if ttl <= 0 {
		return nil
	}
	return a.revoker.Revoke(ctx, claims.ID, ttl)
}

func (a *Authenticator) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// HashPassword returns the bcrypt hash stored for a user.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
