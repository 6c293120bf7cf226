package scheduler

import (
	"slices"

	"github.com/kilianp07/skydispatch/core/model"
)

// NaiveScheduler packs orders, highest priority first, onto the most recently
// opened flight that has not launched yet and still has room. When no such
// flight exists it opens a new one launching DispatchDelay after now, unless
// the fleet is exhausted, in which case the order waits for a later round.
type NaiveScheduler struct {
	DispatchDelay int64
	// MaxOrdersPerFlight caps a flight's load. Zero means unbounded.
	MaxOrdersPerFlight int
	// MaxActiveFlights caps the flights in the air or awaiting launch. Zero
	// means unbounded.
	MaxActiveFlights int
}

type openFlight struct {
	id   uint64
	load int
}

// Schedule implements Scheduler.
func (s *NaiveScheduler) Schedule(in Input) (Plan, error) {
	if err := in.Validate(); err != nil {
		return Plan{}, err
	}
	var plan Plan
	if len(in.Pending) == 0 {
		return plan, nil
	}

	queue := slices.Clone(in.Pending)
	slices.SortStableFunc(queue, func(a, b model.Order) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})

	// candidates are kept in ascending id order, the last entry is the most
	// recently opened flight.
	var candidates []openFlight
	for _, f := range in.Flights {
		if f.Launched(in.Now) {
			continue
		}
		candidates = append(candidates, openFlight{id: f.ID, load: len(f.Orders)})
	}
	slices.SortFunc(candidates, func(a, b openFlight) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})

	nextID := in.NextFlightID
	active := len(in.Flights)
	for _, o := range queue {
		target := s.pick(candidates)
		if target < 0 {
			if s.MaxActiveFlights > 0 && active >= s.MaxActiveFlights {
				continue
			}
			active++
			f := model.Flight{ID: nextID, LaunchTime: in.Now + s.DispatchDelay}
			nextID++
			plan.NewFlights = append(plan.NewFlights, f)
			candidates = append(candidates, openFlight{id: f.ID})
			target = len(candidates) - 1
		}
		candidates[target].load++
		plan.Placements = append(plan.Placements, Placement{OrderSeq: o.Seq, FlightID: candidates[target].id})
	}
	return plan, nil
}

// pick returns the index of the most recently opened candidate with room, or -1.
func (s *NaiveScheduler) pick(candidates []openFlight) int {
	for i := len(candidates) - 1; i >= 0; i-- {
		if s.MaxOrdersPerFlight == 0 || candidates[i].load < s.MaxOrdersPerFlight {
			return i
		}
	}
	return -1
}
