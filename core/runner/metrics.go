package runner

import "github.com/prometheus/client_golang/prometheus"

var (
	tickDuration prometheus.Histogram
	haltsTotal   prometheus.Counter
	ticksTotal   *prometheus.CounterVec
	// reportsDropped counts tick reports lost to a full report queue.
	reportsDropped prometheus.Counter
)

func newCollectors() (prometheus.Histogram, prometheus.Counter, *prometheus.CounterVec, prometheus.Counter) {
	dur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "runner_tick_duration_seconds",
		Help:    "Wall-clock time spent computing one tick",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})
	halts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "runner_halts_total",
		Help: "Number of runner halts caused by invariant violations",
	})
	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "runner_ticks_total",
		Help: "Number of ticks by outcome",
	}, []string{"outcome"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "runner_reports_dropped_total",
		Help: "Number of tick reports dropped because the metrics sink or journal fell behind",
	})
	return dur, halts, ticks, dropped
}

func init() {
	tickDuration, haltsTotal, ticksTotal, reportsDropped = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers runner metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(tickDuration, haltsTotal, ticksTotal, reportsDropped)
}

// ResetMetrics reinitializes collectors for testing purposes and registers
// them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	tickDuration, haltsTotal, ticksTotal, reportsDropped = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
