package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/skydispatch/core/metrics"
)

func newCaptureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(b)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordTick(t *testing.T) {
	srv, bodies := newCaptureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Unix(1700000000, 0)
	sink.now = func() time.Time { return now }

	st := coremetrics.TickStats{Time: 12, Pending: 1, Scheduled: 2, InFlight: 1, Assigned: 3, Launched: 1, Duration: 1500 * time.Microsecond}
	if err := sink.RecordTick(st); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("fleet_tick").
		AddTag("component", "runner").
		AddField("sim_time", int64(12)).
		AddField("pending", 1).
		AddField("scheduled", 2).
		AddField("in_flight", 1).
		AddField("assigned", 3).
		AddField("launched", 1).
		AddField("retired", 0).
		AddField("rejected", 0).
		AddField("skipped", false).
		AddField("duration_ms", 1.5).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != exp {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestInfluxSink_RecordRejectionAndHalt(t *testing.T) {
	srv, bodies := newCaptureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Unix(1700000000, 0)
	sink.now = func() time.Time { return now }

	if err := sink.RecordRejection(coremetrics.RejectionEvent{Time: 3, Destination: "A", Reason: "bad"}); err != nil {
		t.Fatalf("record rejection: %v", err)
	}
	if err := sink.RecordHalt(coremetrics.HaltEvent{Time: 4, Reason: "broken plan"}); err != nil {
		t.Fatalf("record halt: %v", err)
	}
	got := bodies()
	if len(got) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "order_rejected,destination=A ") {
		t.Errorf("unexpected rejection line: %s", got[0])
	}
	if !strings.HasPrefix(got[1], "simulation_halt,component=runner ") || !strings.Contains(got[1], `reason="broken plan"`) {
		t.Errorf("unexpected halt line: %s", got[1])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
