package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"dukaan/pkg/apperr"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("bad input"), http.StatusBadRequest},
		{"authentication", apperr.Authentication("bad token"), http.StatusUnauthorized},
		{"authorization", apperr.Authorization("forbidden"), http.StatusForbidden},
		{"not found", apperr.NotFound("missing"), http.StatusNotFound},
		{"conflict", apperr.Conflict("duplicate"), http.StatusConflict},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", apperr.NotFound("order not found")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.HTTPStatus(tt.err))
		})
	}
}

func TestMessageNeverLeaksInternals(t *testing.T) {
	assert.Equal(t, "Internal Server Error", apperr.Message(errors.New("pq: connection refused")))
	assert.Equal(t, "Internal Server Error", apperr.Message(apperr.Internal(errors.New("driver detail"))))
	assert.Equal(t, "order not found", apperr.Message(apperr.NotFound("order not found")))
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("confirm delivery: %w", apperr.Conflict("order already delivered"))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.False(t, apperr.IsKind(nil, apperr.KindConflict))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := apperr.WrapKind(apperr.KindValidation, "bad", cause)
	assert.ErrorIs(t, err, cause)

	wrapped := apperr.Wrap(cause, "load order")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(wrapped))
}
