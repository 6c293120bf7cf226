package mqtt

import (
	"context"
	"encoding/json"

	"github.com/kilianp07/skydispatch/core/logger"
	"github.com/kilianp07/skydispatch/core/model"
	coremqtt "github.com/kilianp07/skydispatch/core/mqtt"
	"github.com/kilianp07/skydispatch/internal/eventbus"
)

// StatusPublisher mirrors the runner feed on the status topic as JSON.
type StatusPublisher struct {
	transport Transport
	feed      *eventbus.TypedBus[model.StatusUpdate]
	topics    coremqtt.Topics
	log       logger.Logger
}

// NewStatusPublisher creates a publisher. Call Run to start forwarding.
func NewStatusPublisher(t Transport, feed *eventbus.TypedBus[model.StatusUpdate], topics coremqtt.Topics, log logger.Logger) *StatusPublisher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &StatusPublisher{transport: t, feed: feed, topics: topics, log: log}
}

// Run publishes every snapshot until ctx is done or the feed closes. A slow
// broker only ever delays the newest snapshot.
func (p *StatusPublisher) Run(ctx context.Context) {
	sub := p.feed.Subscribe(eventbus.WithBuffer(1), eventbus.WithPolicy(eventbus.LatestWins))
	defer p.feed.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sub:
			if !ok {
				p.log.Infof("status feed closed")
				return
			}
			b, err := json.Marshal(u)
			if err != nil {
				p.log.Errorf("encode status: %v", err)
				continue
			}
			if err := p.transport.Publish(p.topics.Status, "status", b); err != nil {
				p.log.Warnf("publish status t=%d: %v", u.Time, err)
			}
		}
	}
}
