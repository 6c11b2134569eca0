// AngelaMos | 2026
// response_test.go

package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestJSONErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("get user: %w", ErrNotFound), http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("create: %w", ErrDuplicateKey), http.StatusConflict, CodeConflict},
		{ErrConflict, http.StatusConflict, CodeConflict},
		{ErrForbidden, http.StatusForbidden, CodeAuthorization},
		{ErrUnauthorized, http.StatusUnauthorized, CodeAuthentication},
		{ErrSessionExpired, http.StatusUnauthorized, CodeAuthentication},
		{ErrInvalidInput, http.StatusBadRequest, CodeValidation},
		{errors.New("boom"), http.StatusInternalServerError, CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSONError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.False(t, body.Error.Timestamp.IsZero())
		})
	}
}

func TestJSONErrorKeepsAppErrorMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, fmt.Errorf("wrapped: %w", ForbiddenError("You can not delete yourself!")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can not delete yourself!", decodeError(t, rec).Error.Message)
}

func TestInternalErrorDetailHiddenByDefault(t *testing.T) {
	SetExposeErrorDetail(false)
	rec := httptest.NewRecorder()
	InternalServerError(rec, errors.New("pq: relation missing"))

	assert.Empty(t, decodeError(t, rec).Error.Detail)

	SetExposeErrorDetail(true)
	t.Cleanup(func() { SetExposeErrorDetail(false) })

	rec = httptest.NewRecorder()
	InternalServerError(rec, errors.New("pq: relation missing"))
	assert.Equal(t, "pq: relation missing", decodeError(t, rec).Error.Detail)
}

func TestPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2, 3}, 2, 3, 7)

	var body struct {
		Success    bool       `json:"success"`
		Data       []int      `json:"data"`
		Pagination Pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Pagination.TotalPages)
	assert.Equal(t, []int{1, 2, 3}, body.Data)
}

func TestFormatValidationError(t *testing.T) {
	type req struct {
		Email string `validate:"required,email"`
		Name  string `validate:"min=3"`
	}

	err := validator.New().Struct(req{Email: "not-an-email", Name: "ab"})
	msg := FormatValidationError(err)

	assert.Contains(t, msg, "Email must be a valid email")
	assert.Contains(t, msg, "Name must be at least 3 characters")
	assert.Equal(t, "invalid request", FormatValidationError(errors.New("x")))
}

func captureDefaultLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestJSONErrorCtxLogsRequestContext(t *testing.T) {
	logs := captureDefaultLog(t)

	req := httptest.NewRequest(http.MethodDelete, "/admin/module/m-1", nil)
	req = req.WithContext(WithRequestID(req.Context(), "req-42"))
	rec := httptest.NewRecorder()

	JSONErrorCtx(rec, req, errors.New("pq: deadlock detected"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "request failed", entry["msg"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, http.MethodDelete, entry["method"])
	assert.Equal(t, "/admin/module/m-1", entry["path"])
	assert.Equal(t, "pq: deadlock detected", entry["error"])
}

func TestJSONErrorCtxDoesNotLogClientErrors(t *testing.T) {
	logs := captureDefaultLog(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/user/x", nil)
	rec := httptest.NewRecorder()

	JSONErrorCtx(rec, req, NotFoundError("user"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, logs.String())
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
	assert.Equal(t, "abc", RequestIDFromContext(WithRequestID(context.Background(), "abc")))
}
