package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "unauthorized", err: Unauthorized(), expected: http.StatusUnauthorized},
		{name: "forbidden", err: Forbidden(), expected: http.StatusForbidden},
		{name: "not found", err: NotFound("project"), expected: http.StatusNotFound},
		{name: "invalid argument", err: InvalidArgument("status", "bogus"), expected: http.StatusBadRequest},
		{name: "internal", err: Internal("boom", errors.New("db down")), expected: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("unclassified"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err).HTTPStatus())
		})
	}
}

func TestInvalidArgumentNamesValue(t *testing.T) {
	err := InvalidArgument("status", "bogus")

	assert.Equal(t, "status", err.Field)
	assert.Equal(t, "bogus", err.Value)
	assert.Contains(t, err.Error(), "bogus")
}

func TestKindSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("update project: %w", NotFound("user"))

	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindForbidden))
	assert.Equal(t, "user not found", errors.Unwrap(wrapped).Error())
}
