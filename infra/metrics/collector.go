package metrics

import (
	"context"

	"github.com/kilianp07/skydispatch/core/events"
	coremetrics "github.com/kilianp07/skydispatch/core/metrics"
	"github.com/kilianp07/skydispatch/infra/logger"
	"github.com/kilianp07/skydispatch/internal/eventbus"
)

// StartEventCollector subscribes to the runner event bus and records
// rejections and halts on sinks supporting them. Sink failures are logged at
// warn level on log, which may be nil. It stops when the context is canceled
// or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	if log == nil {
		log = logger.NopLogger{}
	}
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe(eventbus.WithBuffer(64))
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.OrderRejected:
		if r, ok := sink.(coremetrics.RejectionRecorder); ok {
			reason := ""
			if e.Err != nil {
				reason = e.Err.Error()
			}
			return r.RecordRejection(coremetrics.RejectionEvent{Time: e.Time, Destination: e.Order.Destination, Reason: reason})
		}
	case events.Halted:
		if r, ok := sink.(coremetrics.HaltRecorder); ok {
			reason := ""
			if e.Err != nil {
				reason = e.Err.Error()
			}
			return r.RecordHalt(coremetrics.HaltEvent{Time: e.Time, Reason: reason})
		}
	}
	return nil
}
