package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", JSON: true, Output: &buf})

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogErrorAddsErrorField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	log.LogError(errors.New("boom"), "insert failed", "op", "insert_entry")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "insert failed", line["msg"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "insert_entry", line["op"])
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	r := gin.New()
	r.Use(Middleware(log))
	r.GET("/", func(c *gin.Context) {
		assert.NotNil(t, FromContext(c))
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	requestID := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, requestID)
	assert.Contains(t, buf.String(), requestID)
	assert.Contains(t, buf.String(), "request completed")
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: false, Output: &buf})

	r := gin.New()
	r.Use(Middleware(log))
	r.GET("/", func(c *gin.Context) {
		c.Error(errors.New("downstream failed"))
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.True(t, strings.Contains(buf.String(), "downstream failed"))
}
