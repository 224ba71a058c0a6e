package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordSync("hh_ru", true, time.Second)
	m.RecordSync("hh_ru", false, time.Second)
	m.RecordSync("hh_ru", false, time.Second)
	m.RecordFallback("linkedin", "timeout")
	m.RecordUpsert("lalafo", true)
	m.RecordUpsert("lalafo", false)
	m.RecordImport("success")
	m.SetDueBacklog(7)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRunsTotal.WithLabelValues("hh_ru", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SyncRunsTotal.WithLabelValues("hh_ru", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterFallbacks.WithLabelValues("linkedin", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CandidatesUpserted.WithLabelValues("lalafo", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CandidatesUpserted.WithLabelValues("lalafo", "updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("success")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.SchedulerDueBacklog))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordSync("hh_ru", true, time.Second)
		m.RecordFallback("hh_ru", "status")
		m.RecordUpsert("hh_ru", true)
		m.RecordImport("failed")
		m.SetDueBacklog(1)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/4", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/items/:id",status="418"} 1`)
}
