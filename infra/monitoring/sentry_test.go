package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/skydispatch/config"
	coremon "github.com/kilianp07/skydispatch/core/monitoring"
)

func TestNewSentryMonitorDisabled(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	if _, err := NewSentryMonitor(config.SentryConfig{DSN: "://bad"}); err == nil {
		t.Fatal("expected error for invalid dsn")
	}
}

func TestSentryCaptureTags(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	m, err := newSentryMonitor(config.SentryConfig{DSN: "https://public@example.com/1", Environment: "test"},
		func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
			return nil
		})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer m.Flush(time.Second)

	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("duplicate flight 3"), map[string]string{"component": "runner", "time": "42"})

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Tags["component"] != "runner" || e.Tags["time"] != "42" {
		t.Fatalf("tags not set: %v", e.Tags)
	}
	if len(e.Fingerprint) != 2 || e.Fingerprint[1] != "runner" {
		t.Fatalf("events should be grouped by component: %v", e.Fingerprint)
	}
	if len(e.Exception) == 0 || e.Exception[len(e.Exception)-1].Value != "duplicate flight 3" {
		t.Fatalf("exception not recorded: %+v", e.Exception)
	}
}

func TestSentryRecoverRepanics(t *testing.T) {
	var reported int
	m, err := newSentryMonitor(config.SentryConfig{DSN: "https://public@example.com/1"},
		func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			reported++
			return nil
		})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("expected re-panic, got %v", r)
		}
		if reported != 1 {
			t.Fatalf("expected panic to be reported once, got %d", reported)
		}
	}()
	func() {
		defer m.Recover()
		panic("boom")
	}()
}
