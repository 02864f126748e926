package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"projtrack/apperrors"
	"projtrack/auth"
	"projtrack/database"
	"projtrack/middleware"
	"projtrack/models"
	"projtrack/policy"
	"projtrack/schema"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ProjectStore is the persistence the project endpoints need.
type ProjectStore interface {
	ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	GetProject(ctx context.Context, projectID int64) (*models.Project, error)
	CreateProject(ctx context.Context, fields models.ProjectFields, createdBy int64) (*models.Project, error)
	UpdateProject(ctx context.Context, projectID int64, fields models.ProjectFields) (*models.Project, error)
	DeleteProject(ctx context.Context, projectID int64) error
}

// SessionManager issues, verifies and revokes login sessions.
type SessionManager interface {
	middleware.SessionVerifier
	Login(ctx context.Context, username, password string) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the HTTP surface is built from.
type Deps struct {
	DB           Pinger
	Store        ProjectStore
	Mapper       *schema.Mapper
	Policy       policy.Policy
	Sessions     SessionManager
	LoginLimiter *middleware.RateLimiter
	CookieSecure bool
}

// Register mounts every route on r.
func Register(r *gin.Engine, d Deps) {
	r.GET("/health", HealthCheck(d.DB))

	login := []gin.HandlerFunc{Login(d.Sessions, d.CookieSecure)}
	if d.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{middleware.RateLimit(d.LoginLimiter)}, login...)
	}
	r.POST("/login/", login...)

	authed := r.Group("/", middleware.Session(d.Sessions))
	authed.POST("/logout/", middleware.AuthRequired(), Logout(d.Sessions, d.CookieSecure))

	authed.GET("/projects/", ListProjects(d))
	authed.POST("/projects/", CreateProject(d))
	authed.GET("/projects/:id/", GetProject(d))
	authed.PUT("/projects/:id/", UpdateProject(d))
	authed.DELETE("/projects/:id/", DeleteProject(d))
}

// respondError writes err as a JSON body with the status of its kind.
// Unclassified errors are logged and reported as internal.
func respondError(c *gin.Context, err error) {
	appErr := classify(err)

	if appErr.Kind == apperrors.KindInternal {
		middleware.Logger(c).WithError(err).Error(appErr.Message)
		c.JSON(appErr.Kind.HTTPStatus(), gin.H{"error": appErr.Message})
		return
	}

	body := gin.H{"error": appErr.Message}
	if appErr.Field != "" {
		body["field"] = appErr.Field
		body["value"] = appErr.Value
	}
	c.JSON(appErr.Kind.HTTPStatus(), body)
}

func classify(err error) *apperrors.Error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, database.ErrProjectNotFound):
		return apperrors.NotFound("project")
	case errors.Is(err, database.ErrUserNotFound):
		return apperrors.NotFound("user")
	default:
		return apperrors.Internal("internal server error", err)
	}
}

// bindError reports a request the binder could not decode. A JSON type
// mismatch or failed binding rule names the offending field; anything else
// blames field.
func bindError(err error, field string) *apperrors.Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.InvalidArgument(typeErr.Field, typeErr.Value)
	}
	var ruleErrs validator.ValidationErrors
	if errors.As(err, &ruleErrs) && len(ruleErrs) > 0 {
		return apperrors.InvalidArgument(strings.ToLower(ruleErrs[0].Field()), "")
	}
	return &apperrors.Error{
		Kind:    apperrors.KindInvalidArgument,
		Message: "malformed " + field,
		Field:   field,
		Err:     err,
	}
}

func parseProjectID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidArgument("id", raw)
	}
	return id, nil
}
