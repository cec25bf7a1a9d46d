package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ahwlsqja/nonce-service/internal/common/errors"
)

func newRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(logger))
	r.GET("/ok", func(c *gin.Context) { RespondOK(c, gin.H{"id": GetRequestID(c)}) })
	r.GET("/storage", func(c *gin.Context) { RespondError(c, errors.StorageError(assert.AnError)) })
	r.GET("/boom", func(c *gin.Context) { RespondError(c, assert.AnError) })
	return r
}

func TestRequestID(t *testing.T) {
	r := newRouter(zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"data":{"id":"req-123"}}`, w.Body.String())
}

func TestRespondError(t *testing.T) {
	r := newRouter(zap.NewNop())

	tests := []struct {
		path       string
		wantStatus int
		wantCode   string
	}{
		{"/storage", http.StatusServiceUnavailable, errors.CodeStorageError},
		{"/boom", http.StatusInternalServerError, errors.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newRouter(zap.New(core))

	for _, path := range []string{"/ok", "/storage", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 1, logs.FilterMessage("request completed").Len())
	assert.Equal(t, 1, logs.FilterMessage("server error").Len())
	assert.Equal(t, 1, logs.FilterMessage("client error").Len())
}

func TestLogger_RouteOutcomeAndErrorCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.POST("/nonces/:action", func(c *gin.Context) {
		SetNonceOutcome(c, "used")
		RespondOK(c, gin.H{"valid": true})
	})
	r.GET("/storage", func(c *gin.Context) { RespondError(c, errors.StorageError(assert.AnError)) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/nonces/check", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/storage", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	ok := entries[0].ContextMap()
	assert.Equal(t, "/nonces/:action", ok["route"])
	assert.Equal(t, "used", ok["nonce_outcome"])
	assert.NotContains(t, ok, "error_code")

	failed := entries[1].ContextMap()
	assert.Equal(t, errors.CodeStorageError, failed["error_code"])
	assert.NotContains(t, failed, "nonce_outcome")

	assert.Equal(t, "unmatched", entries[2].ContextMap()["route"])
}

func TestLogger_QuietRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core), "/ready"))
	healthy := true
	r.GET("/ready", func(c *gin.Context) {
		if healthy {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusServiceUnavailable)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))
	healthy = false
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
