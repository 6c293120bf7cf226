package runner

import (
	"fmt"

	"github.com/kilianp07/skydispatch/core/model"
)

// State is the fleet state owned by the runner.
type State struct {
	Now int64
	// Flights holds the active flights ordered by ID.
	Flights []model.Flight
	// Pending holds accepted orders not yet placed, in arrival order.
	Pending      []model.Order
	NextFlightID uint64
	// Accepted and Delivered count orders entering the fleet and leaving it
	// with a retired flight.
	Accepted  uint64
	Delivered uint64
}

func newState() State {
	return State{NextFlightID: 1}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	cp := s
	cp.Pending = append([]model.Order(nil), s.Pending...)
	cp.Flights = make([]model.Flight, len(s.Flights))
	for i, f := range s.Flights {
		cp.Flights[i] = f.Clone()
	}
	return cp
}

// Snapshot builds the public status update for the state.
func (s State) Snapshot(speed int32) model.StatusUpdate {
	u := model.StatusUpdate{Time: s.Now, Speed: speed, Flights: make([]model.Flight, len(s.Flights))}
	for i, f := range s.Flights {
		u.Flights[i] = f.Clone()
	}
	return u
}

// Counts splits the active flights by status at Now.
func (s State) Counts() (scheduled, inFlight int) {
	for _, f := range s.Flights {
		if f.Status(s.Now) == model.FlightScheduled {
			scheduled++
		} else {
			inFlight++
		}
	}
	return scheduled, inFlight
}

// verify checks that every accepted order sits in exactly one place.
func (s State) verify() error {
	seen := make(map[uint64]string, len(s.Pending))
	for _, o := range s.Pending {
		if _, dup := seen[o.Seq]; dup {
			return violation(s.Now, "order %d pending twice", o.Seq)
		}
		seen[o.Seq] = "pending"
	}
	var prevID uint64
	for i, f := range s.Flights {
		if len(f.Orders) == 0 {
			return violation(s.Now, "flight %d carries no orders", f.ID)
		}
		if i > 0 && f.ID <= prevID {
			return violation(s.Now, "flights out of order at %d", f.ID)
		}
		prevID = f.ID
		for _, o := range f.Orders {
			if where, dup := seen[o.Seq]; dup {
				return violation(s.Now, "order %d on flight %d is also %s", o.Seq, f.ID, where)
			}
			seen[o.Seq] = fmt.Sprintf("on flight %d", f.ID)
		}
	}
	if want := s.Accepted - s.Delivered; uint64(len(seen)) != want {
		return violation(s.Now, "fleet holds %d orders, expected %d", len(seen), want)
	}
	return nil
}
