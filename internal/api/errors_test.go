package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/taskmgr-api/internal/api/shared"
	"github.com/phrazzld/taskmgr-api/internal/domain"
	"github.com/phrazzld/taskmgr-api/internal/service"
	"github.com/phrazzld/taskmgr-api/internal/service/auth"
	"github.com/phrazzld/taskmgr-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{auth.ErrRevokedToken, http.StatusUnauthorized},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrNotOwned, http.StatusForbidden},
		{fmt.Errorf("failed to get task: %w", store.ErrTaskNotFound), http.StatusNotFound},
		{store.ErrUserNotFound, http.StatusNotFound},
		{store.ErrEmailExists, http.StatusConflict},
		{store.ErrTaskExists, http.StatusConflict},
		{service.ErrNothingToUpdate, http.StatusBadRequest},
		{domain.ErrInvalidTaskStatus, http.StatusBadRequest},
		{domain.ErrPasswordTooShort, http.StatusBadRequest},
		{domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID), http.StatusBadRequest},
		{shared.ErrEmptyBody, http.StatusBadRequest},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "An unexpected error occurred"},
		{auth.ErrExpiredToken, "Token expired"},
		{store.ErrTaskNotFound, "Task not found"},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidEmail), "Invalid email format"},
		{domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID), "Invalid id"},
		{errors.New("pq: relation \"tasks\" does not exist"), "An unexpected error occurred"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
	}
}

func TestSanitizeValidationError(t *testing.T) {
	err := shared.ValidateRequest(SignupRequest{Name: "Ada", Email: "ada@example.com"})
	require.Error(t, err)
	assert.Equal(t, "Invalid password: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}

func TestNullableTime(t *testing.T) {
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.False(t, req.DueDate.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"due_date":null}`), &req))
	assert.True(t, req.DueDate.Set)
	assert.False(t, req.DueDate.Valid)

	req = UpdateTaskRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"due_date":"2030-01-02T03:04:05Z"}`), &req))
	assert.True(t, req.DueDate.Valid)
	assert.Equal(t, 2030, req.DueDate.Time.Year())

	assert.Error(t, json.Unmarshal([]byte(`{"due_date":"tomorrow"}`), &req))
}
