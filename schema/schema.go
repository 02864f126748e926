// Package schema maps projects between their wire and stored forms and
// validates everything a client sends before it reaches the store.
package schema

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"projtrack/apperrors"
	"projtrack/database"
	"projtrack/models"
)

// UserLookup resolves user ids referenced by a payload.
// A missing user must be reported with an error wrapping database.ErrNotFound.
type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// maxNameLength matches the VARCHAR(255) name column, which counts characters.
const maxNameLength = 255

type Mapper struct {
	users UserLookup
}

func NewMapper(users UserLookup) *Mapper {
	return &Mapper{users: users}
}

// Decode validates a create or update payload. Omitted status and priority
// fall back to their defaults; created_by is never read from the payload.
func (m *Mapper) Decode(ctx context.Context, req models.ProjectRequest) (models.ProjectFields, error) {
	var fields models.ProjectFields

	if strings.TrimSpace(req.Name) == "" {
		return fields, apperrors.InvalidArgument("name", req.Name)
	}
	if utf8.RuneCountInString(req.Name) > maxNameLength {
		return fields, apperrors.InvalidArgument("name", req.Name)
	}
	if strings.TrimSpace(req.Description) == "" {
		return fields, apperrors.InvalidArgument("description", req.Description)
	}

	status, err := ParseStatus(req.Status, models.DefaultStatus)
	if err != nil {
		return fields, err
	}
	priority, err := ParsePriority(req.Priority, models.DefaultPriority)
	if err != nil {
		return fields, err
	}

	if req.AssignedTo != nil {
		if _, err := m.users.GetUser(ctx, *req.AssignedTo); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fields, apperrors.NotFound("user")
			}
			return fields, apperrors.Internal("failed to resolve assigned user", err)
		}
	}

	fields = models.ProjectFields{
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		AssignedTo:  req.AssignedTo,
	}
	return fields, nil
}

// Encode renders a project for the wire. created_by is the creator's username.
func (m *Mapper) Encode(p models.Project) models.ProjectResponse {
	return models.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		Priority:    p.Priority,
		DateCreated: p.DateCreated,
		AssignedTo:  p.AssignedTo,
		CreatedBy:   p.CreatedByName,
	}
}

func (m *Mapper) EncodeList(projects []models.Project) []models.ProjectResponse {
	out := make([]models.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, m.Encode(p))
	}
	return out
}

// ParseStatus validates s, returning def when s is empty.
func ParseStatus(s string, def models.Status) (models.Status, error) {
	if s == "" {
		return def, nil
	}
	status := models.Status(s)
	if !status.Valid() {
		return "", apperrors.InvalidArgument("status", s)
	}
	return status, nil
}

// ParsePriority validates s, returning def when s is empty.
func ParsePriority(s string, def models.Priority) (models.Priority, error) {
	if s == "" {
		return def, nil
	}
	priority := models.Priority(s)
	if !priority.Valid() {
		return "", apperrors.InvalidArgument("priority", s)
	}
	return priority, nil
}

// ParseListQuery validates listing filters. Empty values mean no filter.
func ParseListQuery(q models.ListQuery) (models.ProjectFilter, error) {
	filter := models.ProjectFilter{Search: q.Search}

	var err error
	if q.AssignedTo != "" {
		id, err := strconv.ParseInt(q.AssignedTo, 10, 64)
		if err != nil {
			return filter, apperrors.InvalidArgument("assigned_to", q.AssignedTo)
		}
		filter.AssignedTo = &id
	}
	if filter.Limit, err = parseCount("limit", q.Limit); err != nil {
		return filter, err
	}
	if filter.Offset, err = parseCount("offset", q.Offset); err != nil {
		return filter, err
	}
	if filter.Status, err = ParseStatus(q.Status, ""); err != nil {
		return filter, err
	}
	if filter.Priority, err = ParsePriority(q.Priority, ""); err != nil {
		return filter, err
	}

	if q.CreatedAfter != "" {
		t, err := parseRFC3339(q.CreatedAfter)
		if err != nil {
			return filter, apperrors.InvalidArgument("created_after", q.CreatedAfter)
		}
		filter.CreatedAfter = &t
	}
	if q.CreatedBefore != "" {
		t, err := parseRFC3339(q.CreatedBefore)
		if err != nil {
			return filter, apperrors.InvalidArgument("created_before", q.CreatedBefore)
		}
		filter.CreatedBefore = &t
	}

	return filter, nil
}

// parseCount parses a paging parameter. Clamping is left to the store.
func parseCount(field, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidArgument(field, s)
	}
	return n, nil
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
