package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmgr-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	ctx := SetTraceID(context.Background())
	id := GetTraceID(ctx)

	assert.Len(t, id, 32)
	assert.NotEqual(t, id, GetTraceID(SetTraceID(context.Background())))
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestUserID(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	_, ok = GetUserID(WithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok)

	id := uuid.New()
	got, ok := GetUserID(WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"ada"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"unknown field", `{"name":"ada","admin":true}`, true},
		{"trailing value", `{"name":"ada"}{"name":"bob"}`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), r, &p)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ada", p.Name)
		})
	}

	t.Run("empty body sentinel", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), r, &payload{}), ErrEmptyBody)
	})
}

func TestValidateRequest(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
	}
	assert.NoError(t, ValidateRequest(payload{Email: "a@example.com"}))
	assert.Error(t, ValidateRequest(payload{Email: "nope"}))
}

func TestRespondWithError(t *testing.T) {
	ctx := WithTraceID(context.Background(), "abc123")
	r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	RespondWithError(w, r, http.StatusUnauthorized, "Token expired", WithErrorCode("TOKEN_EXPIRED"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, ErrorResponse{Error: "Token expired", Code: "TOKEN_EXPIRED", TraceID: "abc123"}, body)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel string
	}{
		{"server error", http.StatusInternalServerError, nil, "ERROR"},
		{"client error", http.StatusNotFound, nil, "DEBUG"},
		{"rate limited", http.StatusTooManyRequests, nil, "WARN"},
		{"elevated", http.StatusUnauthorized, []ResponseOption{WithElevatedLogLevel()}, "WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			ctx := logger.WithLogger(context.Background(), log)
			r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil).WithContext(ctx)
			w := httptest.NewRecorder()

			err := errors.New("dial postgres://app:pw@db:5432/tasks: refused")
			RespondWithErrorAndLog(w, r, tc.status, "Something went wrong", err, tc.opts...)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tc.wantLevel, entry["level"])
			assert.NotContains(t, entry["error"], "app:pw")

			assert.NotContains(t, w.Body.String(), "postgres")
			assert.Contains(t, w.Body.String(), "Something went wrong")
		})
	}
}
