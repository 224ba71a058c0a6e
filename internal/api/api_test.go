package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethanbaker/sourcing/pkg/metrics"
	"github.com/ethanbaker/sourcing/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNewEngine(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := utils.NewConfig(map[string]string{"API_KEY": "key"})
	engine := NewEngine(cfg, metrics.New(prometheus.NewRegistry()))

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, get("/api/health").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/unknown").Code)
	assert.NotEqual(t, http.StatusOK, get("/api/integrations").Code)

	w := get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/health",status="200"} 1`)
}
