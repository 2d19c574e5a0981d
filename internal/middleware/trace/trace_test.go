package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRequestIDFlowsThroughContext(t *testing.T) {
	m := NewMiddleware(nil)

	var seen string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q, want req_ prefix", seen)
	}
	if GetRequestID(context.Background()) != "" {
		t.Error("bare context produced a request id")
	}
}

func TestMetricsTracksMeanResponseTime(t *testing.T) {
	m := NewMiddleware(nil)
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Millisecond)
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/accounts", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 3 {
		t.Errorf("total requests = %d, want 3", got.TotalRequests)
	}
	// Each request sleeps 2ms, so the mean must be at least that.
	if got.AverageResponseTime < 2000 {
		t.Errorf("average response time = %dµs, want >= 2000µs", got.AverageResponseTime)
	}
}

func TestMetricsZeroBeforeTraffic(t *testing.T) {
	m := NewMiddleware(nil)
	got := m.GetMetrics()
	if got.TotalRequests != 0 || got.AverageResponseTime != 0 {
		t.Errorf("unexpected metrics before traffic: %+v", got)
	}
}
