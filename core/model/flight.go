package model

import "fmt"

// FlightStatus is derived from the simulated time, it is never stored.
type FlightStatus int

const (
	FlightScheduled FlightStatus = iota
	FlightInFlight
	FlightRetired
)

// String returns a human-readable representation of the status.
func (s FlightStatus) String() string {
	switch s {
	case FlightScheduled:
		return "scheduled"
	case FlightInFlight:
		return "in_flight"
	case FlightRetired:
		return "retired"
	default:
		return "unknown"
	}
}

// Flight is a vehicle dispatch carrying one or more orders.
type Flight struct {
	ID         uint64  `json:"id"`
	LaunchTime int64   `json:"launch_time"`
	Orders     []Order `json:"orders"`
}

// Validate checks that the flight carries at least one order.
func (f Flight) Validate() error {
	if len(f.Orders) == 0 {
		return &ValidationError{Field: "orders", Reason: fmt.Sprintf("flight %d carries no orders", f.ID)}
	}
	return nil
}

// Launched reports whether the flight has departed at now.
func (f Flight) Launched(now int64) bool { return now >= f.LaunchTime }

// Status returns Scheduled before the launch time and InFlight afterwards.
// Retirement is decided by the runner.
func (f Flight) Status(now int64) FlightStatus {
	if f.Launched(now) {
		return FlightInFlight
	}
	return FlightScheduled
}

// Progress returns the distance covered at now for the given fleet speed.
func (f Flight) Progress(now int64, speed int32) int64 {
	if !f.Launched(now) {
		return 0
	}
	return (now - f.LaunchTime) * int64(speed)
}

// RouteLength returns the made-up route length: one fixed leg per order.
func (f Flight) RouteLength(perDestination int64) int64 {
	return perDestination * int64(len(f.Orders))
}

// Completed reports whether the flight has covered its whole route.
func (f Flight) Completed(now int64, speed int32, perDestination int64) bool {
	return f.Launched(now) && f.Progress(now, speed) >= f.RouteLength(perDestination)
}

// Clone returns a deep copy of the flight.
func (f Flight) Clone() Flight {
	cp := f
	cp.Orders = append([]Order(nil), f.Orders...)
	return cp
}

// StatusUpdate is the snapshot of the fleet emitted after every tick.
type StatusUpdate struct {
	Time    int64    `json:"time"`
	Flights []Flight `json:"flights"`
	Speed   int32    `json:"speed"`
}

// Clone returns a deep copy of the update.
func (u StatusUpdate) Clone() StatusUpdate {
	cp := u
	cp.Flights = make([]Flight, len(u.Flights))
	for i, f := range u.Flights {
		cp.Flights[i] = f.Clone()
	}
	return cp
}
