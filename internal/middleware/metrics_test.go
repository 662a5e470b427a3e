package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/custom-icon-badges/custom-icon-badges/internal/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// findMetric returns the first series of c whose labels include all of labels.
func findMetric(c prometheus.Collector, labels prometheus.Labels) *dto.Metric {
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			continue
		}
		matched := 0
		for _, lp := range dm.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want == lp.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return &dm
		}
	}
	return nil
}

func counterValue(labels prometheus.Labels) float64 {
	if m := findMetric(telemetry.HTTPRequestsTotal, labels); m != nil {
		return m.GetCounter().GetValue()
	}
	return 0
}

func histogramCount(labels prometheus.Labels) uint64 {
	if m := findMetric(telemetry.HTTPRequestDuration, labels); m != nil {
		return m.GetHistogram().GetSampleCount()
	}
	return 0
}

func newMetricsRouter(status int) *gin.Engine {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/badge/*path", func(c *gin.Context) { c.Status(status) })
	r.NoRoute(func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestMetricsMiddleware_CountsByRouteTemplate(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/badge/*path", "status": "200"}
	before := counterValue(labels)
	beforeHist := histogramCount(prometheus.Labels{"method": "GET", "path": "/badge/*path"})

	serve(newMetricsRouter(http.StatusOK), http.MethodGet, "/badge/build-passing-green")

	if got := counterValue(labels); got-before != 1 {
		t.Errorf("http_requests_total delta = %.0f, want 1", got-before)
	}
	if got := histogramCount(prometheus.Labels{"method": "GET", "path": "/badge/*path"}); got <= beforeHist {
		t.Errorf("duration sample count did not increase: before=%d after=%d", beforeHist, got)
	}
	if findMetric(telemetry.HTTPRequestsTotal, prometheus.Labels{"path": "/badge/build-passing-green"}) != nil {
		t.Error("raw URL used as path label")
	}
}

func TestMetricsMiddleware_NoRouteLabel(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": UnmatchedRouteLabel, "status": "200"}
	before := counterValue(labels)

	serve(newMetricsRouter(http.StatusOK), http.MethodGet, "/github/stars/octo/repo")

	if got := counterValue(labels); got-before != 1 {
		t.Errorf("no-route counter delta = %.0f, want 1", got-before)
	}
}

func TestMetricsMiddleware_RecordsErrorStatus(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/badge/*path", "status": "502"}
	before := counterValue(labels)

	serve(newMetricsRouter(http.StatusBadGateway), http.MethodGet, "/badge/x")

	if got := counterValue(labels); got-before != 1 {
		t.Errorf("status=502 counter delta = %.0f, want 1", got-before)
	}
}

func TestMetricsMiddleware_RecordsRecoveredPanic(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/explode", "status": "500"}
	before := counterValue(labels)

	r := gin.New()
	r.Use(gin.Recovery(), MetricsMiddleware())
	r.GET("/explode", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/explode")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := counterValue(labels); got-before != 1 {
		t.Errorf("status=500 counter delta = %.0f, want 1", got-before)
	}
}
