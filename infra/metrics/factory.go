package metrics

import (
	"github.com/kilianp07/skydispatch/core/factory"
	coremetrics "github.com/kilianp07/skydispatch/core/metrics"
)

// init registers the Prometheus and InfluxDB sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		sink, err := NewPromSink()
		if err != nil {
			return nil, err
		}
		return sink, nil
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
