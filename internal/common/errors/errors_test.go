package errors

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Error types
// ==========================

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *StandardError
		want int
	}{
		{NewValidationError("Campos obrigatórios faltando", "candidateName"), http.StatusBadRequest},
		{NewBlacklistBlockError("666"), http.StatusForbidden},
		{NewStorageUnavailableError(nil), http.StatusServiceUnavailable},
		{NewStorageWriteError("append", sql.ErrTxDone), http.StatusInternalServerError},
		{NewRecordNotFoundError("x"), http.StatusNotFound},
		{NewInternalError(stderrors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err.Code))
		})
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("SOMETHING_ELSE"))
}

func TestStorageUnavailable(t *testing.T) {
	unset := NewStorageUnavailableError(nil)
	assert.True(t, unset.Retryable)
	assert.Equal(t, "database not configured", unset.Details)
	assert.Nil(t, unset.Unwrap())

	cause := stderrors.New("connection refused")
	down := NewStorageUnavailableError(cause)
	assert.ErrorIs(t, down, cause)
	assert.Equal(t, "connection refused", down.Details)
}

func TestHasCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("append: %w", NewBlacklistBlockError("666"))

	assert.True(t, HasCode(err, ErrCodeBlacklistBlock))
	assert.False(t, HasCode(err, ErrCodeValidationFailed))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeInternal))
	assert.False(t, HasCode(nil, ErrCodeInternal))
}

func TestNormalize(t *testing.T) {
	std := NewRecordNotFoundError("abc")
	assert.Same(t, std, Normalize(fmt.Errorf("get: %w", std)))

	wrapped := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, wrapped.Code)
	assert.Equal(t, "boom", wrapped.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeStorageUnavailable))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeRecordNotFound))
	assert.Equal(t, "ELIGIBILITY", GetErrorCategory(ErrCodeBlacklistBlock))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

// ==========================
// Responder
// ==========================

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{}) { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) {
	l.errors = append(l.errors, msg)
}

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, *recordingLogger) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/tafs", nil)
	h.Respond(c, err)
	return w, log
}

func TestRespond_ClientError(t *testing.T) {
	w, log := respond(t, NewValidationError("Campos obrigatórios faltando", "passportId"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Campos obrigatórios faltando", body["message"])
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	assert.Equal(t, "passportId", body["details"])
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}

func TestRespond_ServerErrorHidesDetails(t *testing.T) {
	w, log := respond(t, stderrors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.NotContains(t, body, "details")
	assert.Len(t, log.errors, 1)
}
