package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.TrackStarts.Inc()
	m.TicketMints.WithLabelValues("ok").Add(2)
	m.ConsecutiveFailures.Set(3)

	if got := testutil.ToFloat64(m.TicketMints.WithLabelValues("ok")); got != 2 {
		t.Errorf("ticket mints = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"plexplay_track_starts_total 1",
		`plexplay_ticket_mints_total{outcome="ok"} 2`,
		"plexplay_consecutive_failures 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
