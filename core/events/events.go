package events

import "github.com/kilianp07/skydispatch/core/model"

// Event is implemented by every runner event.
type Event interface {
	// At returns the simulated time the event belongs to.
	At() int64
}

// OrderRejected is published when an order fails validation.
type OrderRejected struct {
	Time  int64
	Order model.Order
	Err   error
}

// FlightLaunched is published when the scheduler opens a new flight.
type FlightLaunched struct {
	Time       int64
	FlightID   uint64
	LaunchTime int64
}

// FlightRetired is published when a flight completes its route.
type FlightRetired struct {
	Time     int64
	FlightID uint64
	Orders   int
}

// TickSkipped is published when the scheduler rejected its input and the
// scheduling phase of the tick was skipped.
type TickSkipped struct {
	Time int64
	Err  error
}

// Halted is published once when the simulation stops.
type Halted struct {
	Time int64
	Err  error
}

func (e OrderRejected) At() int64  { return e.Time }
func (e FlightLaunched) At() int64 { return e.Time }
func (e FlightRetired) At() int64  { return e.Time }
func (e TickSkipped) At() int64    { return e.Time }
func (e Halted) At() int64         { return e.Time }
