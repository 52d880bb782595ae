package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-early-warning/internal/invocation"
)

type mockInvoker struct {
	result  invocation.Result
	payload []byte
}

func (m *mockInvoker) Invoke(_ context.Context, payload []byte) invocation.Result {
	m.payload = payload
	return m.result
}

func setupTestRouter(inv Invoker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter("predictor", inv, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInvoke_OK(t *testing.T) {
	inv := &mockInvoker{result: invocation.OK(map[string]any{"alerts_generated": false, "risk_level": "LOW"})}
	router := setupTestRouter(inv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewBufferString(`{"sensors":{}}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Header().Get(StatusHeader))
	assert.JSONEq(t, `{"alerts_generated":false,"risk_level":"LOW"}`, w.Body.String())
	assert.Equal(t, `{"sensors":{}}`, string(inv.payload))
}

func TestInvoke_EmptyBody(t *testing.T) {
	inv := &mockInvoker{result: invocation.OK(gin.H{"message": "done"})}
	router := setupTestRouter(inv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoke", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "{}", string(inv.payload))
}

func TestInvoke_NotConfigured(t *testing.T) {
	inv := &mockInvoker{result: invocation.NotConfigured(gin.H{"message": "Alert processed successfully"}, invocation.ErrChannelNotConfigured)}
	router := setupTestRouter(inv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewBufferString(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "not_configured", w.Header().Get(StatusHeader))
}

func TestInvoke_Failed(t *testing.T) {
	inv := &mockInvoker{result: invocation.Failed(errors.New("parse reading set: unexpected end of JSON input"))}
	router := setupTestRouter(inv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewBufferString(`{`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed", w.Header().Get(StatusHeader))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "parse reading set")
}

func TestInvoke_WrongMethod(t *testing.T) {
	router := setupTestRouter(&mockInvoker{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoke", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
