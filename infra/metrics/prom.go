package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/skydispatch/core/metrics"
)

// PromSink records fleet statistics in Prometheus metrics.
type PromSink struct {
	flights    *prometheus.GaugeVec
	pending    prometheus.Gauge
	simTime    prometheus.Gauge
	assigned   prometheus.Counter
	launched   prometheus.Counter
	retired    prometheus.Counter
	skipped    prometheus.Counter
	rejections *prometheus.CounterVec
	halts      prometheus.Counter
}

// NewPromSink registers fleet metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		flights: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleet_flights",
			Help: "Number of flights in the fleet by status",
		}, []string{"status"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_pending_orders",
			Help: "Number of orders waiting for a flight",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_simulation_time_seconds",
			Help: "Current simulated time",
		}),
		assigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_orders_assigned_total",
			Help: "Total number of orders placed on a flight",
		}),
		launched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_flights_launched_total",
			Help: "Total number of flights opened by the scheduler",
		}),
		retired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_flights_retired_total",
			Help: "Total number of flights that completed their route",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_ticks_skipped_total",
			Help: "Total number of ticks whose scheduling phase was skipped",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_orders_rejected_total",
			Help: "Total number of orders rejected at ingestion",
		}, []string{"destination"}),
		halts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_halts_total",
			Help: "Total number of simulation halts",
		}),
	}
	var err error
	if s.flights, err = register(reg, s.flights); err != nil {
		return nil, err
	}
	if s.pending, err = register(reg, s.pending); err != nil {
		return nil, err
	}
	if s.simTime, err = register(reg, s.simTime); err != nil {
		return nil, err
	}
	if s.assigned, err = register(reg, s.assigned); err != nil {
		return nil, err
	}
	if s.launched, err = register(reg, s.launched); err != nil {
		return nil, err
	}
	if s.retired, err = register(reg, s.retired); err != nil {
		return nil, err
	}
	if s.skipped, err = register(reg, s.skipped); err != nil {
		return nil, err
	}
	if s.rejections, err = register(reg, s.rejections); err != nil {
		return nil, err
	}
	if s.halts, err = register(reg, s.halts); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTick updates gauges and counters from the tick statistics.
func (s *PromSink) RecordTick(st coremetrics.TickStats) error {
	s.flights.WithLabelValues("scheduled").Set(float64(st.Scheduled))
	s.flights.WithLabelValues("in_flight").Set(float64(st.InFlight))
	s.pending.Set(float64(st.Pending))
	s.simTime.Set(float64(st.Time))
	s.assigned.Add(float64(st.Assigned))
	s.launched.Add(float64(st.Launched))
	s.retired.Add(float64(st.Retired))
	if st.Skipped {
		s.skipped.Inc()
	}
	return nil
}

// RecordRejection increments the rejection counter.
func (s *PromSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	s.rejections.WithLabelValues(ev.Destination).Inc()
	return nil
}

// RecordHalt increments the halt counter.
func (s *PromSink) RecordHalt(coremetrics.HaltEvent) error {
	s.halts.Inc()
	return nil
}
