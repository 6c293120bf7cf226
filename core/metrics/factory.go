package metrics

import (
	"fmt"

	"github.com/kilianp07/skydispatch/core/factory"
)

// sinks maps a metrics.sinks[].type value to its constructor. "nop" is built
// in; infra/metrics adds "prometheus" and "influx".
var sinks = factory.NewRegistry[MetricsSink]()

func init() {
	_ = RegisterMetricsSink("nop", func(map[string]any) (MetricsSink, error) { return NopSink{}, nil })
}

// RegisterMetricsSink makes a sink type available to NewMetricsSink.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinks.Register(name, f)
}

// NewMetricsSink builds the recorder for tick stats, rejections and halts
// described by cfgs. An empty list records nothing and several entries are
// fanned out through a MultiSink. Sinks already opened are closed when a
// later entry fails.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	built := make([]MetricsSink, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			closeSinks(built)
			return nil, fmt.Errorf("sink %d (%s): %w", i, c.Type, err)
		}
		built = append(built, s)
	}
	switch len(built) {
	case 0:
		return NopSink{}, nil
	case 1:
		return built[0], nil
	}
	return NewMultiSink(built...), nil
}

func closeSinks(ss []MetricsSink) {
	for _, s := range ss {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
