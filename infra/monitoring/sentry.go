package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/skydispatch/config"
	coremon "github.com/kilianp07/skydispatch/core/monitoring"
)

// NewSentryMonitor reports runner halts and recovered panics to Sentry. An
// empty DSN yields a NopMonitor.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	return newSentryMonitor(cfg, nil)
}

func newSentryMonitor(cfg config.SentryConfig, beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	return &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// sentryMonitor owns its hub so the global Sentry state is left untouched.
type sentryMonitor struct {
	hub *sentry.Hub
}

// CaptureException sends err with tags such as the halting component and the
// simulation time. Events from one component are grouped together.
func (m *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	m.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if c := tags["component"]; c != "" {
			scope.SetFingerprint([]string{"{{ default }}", c})
		}
		m.hub.CaptureException(err)
	})
}

// Recover reports a panic and re-raises it once the event is flushed.
func (m *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		m.hub.Recover(r)
		m.hub.Flush(2 * time.Second)
		panic(r)
	}
}

func (m *sentryMonitor) Flush(timeout time.Duration) { m.hub.Flush(timeout) }
