package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotel_scout/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the counters are non-zero
	observability.ObserveHTTP("/healthz", "GET", 200, 2*time.Millisecond)
	observability.ObserveSearch("LOW", nil, 1200*time.Millisecond)
	observability.ObserveSearch("HIGH", errors.New("boom"), 300*time.Millisecond)
	observability.ObserveExternal("hotels", "list", 200, 40*time.Millisecond)
	observability.ObserveCache("redis", "hit")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"hotelscout_http_requests_total",
		`hotelscout_searches_total{mode="LOW",outcome="ok"}`,
		`hotelscout_searches_total{mode="HIGH",outcome="failed"}`,
		"hotelscout_external_requests_total",
		"hotelscout_cache_events_total",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
