package metrics

import "time"

// TickStats summarizes one runner tick.
type TickStats struct {
	// Time is the simulated time after the tick advanced.
	Time int64
	// Pending is the number of orders still waiting for a flight.
	Pending int
	// Scheduled and InFlight split the active flights by status.
	Scheduled int
	InFlight  int
	// Assigned orders, Launched (opened) and Retired flights during the tick.
	Assigned int
	Launched int
	Retired  int
	// Rejected counts orders refused at ingestion.
	Rejected int
	// Skipped is set when the scheduler rejected its input.
	Skipped bool
	// Duration is the wall-clock time spent computing the tick.
	Duration time.Duration
}

// Active returns the number of flights in the fleet.
func (s TickStats) Active() int { return s.Scheduled + s.InFlight }

// MetricsSink records tick statistics for observability purposes.
type MetricsSink interface {
	RecordTick(stats TickStats) error
}

// RejectionEvent describes an order refused by validation.
type RejectionEvent struct {
	Time        int64
	Destination string
	Reason      string
}

// RejectionRecorder is implemented by sinks able to record rejected orders.
type RejectionRecorder interface {
	RecordRejection(ev RejectionEvent) error
}

// HaltEvent describes a fatal stop of the simulation.
type HaltEvent struct {
	Time   int64
	Reason string
}

// HaltRecorder is implemented by sinks able to record simulation halts.
type HaltRecorder interface {
	RecordHalt(ev HaltEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickStats) error           { return nil }
func (NopSink) RecordRejection(RejectionEvent) error { return nil }
func (NopSink) RecordHalt(HaltEvent) error           { return nil }
