package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.ServeHTTP(w, req)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestRecordSubmission(t *testing.T) {
	m := New()

	m.RecordSubmission(ResultInserted)
	m.RecordSubmission(ResultSkipped)
	m.RecordSubmission(ResultSkipped)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues(ResultInserted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues(ResultSkipped)))
}

func TestObservePoolTwiceDoesNotPanic(t *testing.T) {
	m := New()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.NotPanics(t, func() {
		m.ObservePool(db)
		m.ObservePool(db)
	})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.poolInits))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordCacheLookup(true)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "guestbook_cache_lookups_total")
}

func TestRecordBreakerState(t *testing.T) {
	m := New()

	m.RecordBreakerState("redis", "open")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.breakerOpen.WithLabelValues("redis")))

	m.RecordBreakerState("redis", "closed")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.breakerOpen.WithLabelValues("redis")))
}
