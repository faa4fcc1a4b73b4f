package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAppError_Classification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{
			name:   "validation",
			err:    NewValidationError("empty input"),
			check:  IsValidation,
			status: http.StatusBadRequest,
		},
		{
			name:   "generation failed",
			err:    NewGenerationFailedError("stage 1 failed", errors.New("boom")),
			check:  IsGenerationFailed,
			status: http.StatusBadGateway,
		},
		{
			name:   "stale result",
			err:    NewStaleResultError(1, 2),
			check:  IsStale,
			status: http.StatusConflict,
		},
		{
			name:   "not found",
			err:    NewNotFoundError("session"),
			check:  IsNotFound,
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)

			assert.True(t, tt.check(wrapped))
			appErr := GetAppError(wrapped)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
			assert.NotEmpty(t, appErr.StackTrace)
		})
	}
}

func TestAppError_UnwrapCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewGenerationFailedError("stage 1 failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, IsValidation(err))
}

func TestPartialTaskFailure_Details(t *testing.T) {
	err := NewPartialTaskFailureError([]string{"a", "b"})

	assert.Equal(t, ErrorTypePartialTaskFailure, err.Type)
	assert.Equal(t, []string{"a", "b"}, err.Details["idea_ids"])
	assert.Contains(t, err.Message, "2 idea(s)")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))

	appErr := NewValidationError("bad")
	wrapped := Wrap(appErr, "submit")
	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, "submit: bad", GetAppError(wrapped).Message)

	plain := Wrap(errors.New("io"), "read")
	assert.True(t, IsType(plain, ErrorTypeInternal))
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error keeps status and type", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/generations", nil)
		req.Header.Set("X-Request-ID", "req-1")

		handler.Handle(rec, req, NewValidationError("at least one field is required"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Error)
		assert.Equal(t, "VALIDATION", body.Type)
		assert.Equal(t, "req-1", body.RequestID)
	})

	t.Run("plain error hides message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		handler.Handle(rec, req, errors.New("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret detail")
	})

	t.Run("panic middleware", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h := handler.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("kaboom")
		}))

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
