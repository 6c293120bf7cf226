package scheduler

import (
	"fmt"

	"github.com/kilianp07/skydispatch/core/model"
)

// Scheduler proposes order placements for the current fleet state.
type Scheduler interface {
	Schedule(in Input) (Plan, error)
}

// Input is the read-only view of the fleet handed to a Scheduler.
type Input struct {
	Now int64
	// Pending holds accepted orders in arrival order.
	Pending []model.Order
	// Flights holds the active flights ordered by ID.
	Flights []model.Flight
	// NextFlightID is the identity to give the first flight opened by the plan.
	NextFlightID uint64
}

// Placement loads the order with sequence OrderSeq onto flight FlightID.
type Placement struct {
	OrderSeq uint64
	FlightID uint64
}

// Plan is the outcome of a scheduling round.
type Plan struct {
	// Placements are listed in processing order.
	Placements []Placement
	// NewFlights are flights opened by this round. Their Orders are empty,
	// the runner fills them from Placements.
	NewFlights []model.Flight
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool { return len(p.Placements) == 0 && len(p.NewFlights) == 0 }

// Validate rejects malformed scheduler input.
func (in Input) Validate() error {
	seqs := make(map[uint64]struct{}, len(in.Pending))
	for _, o := range in.Pending {
		if err := o.Validate(); err != nil {
			return err
		}
		if o.Seq == 0 {
			return &model.ValidationError{Field: "seq", Reason: "pending order has no sequence number"}
		}
		if _, dup := seqs[o.Seq]; dup {
			return &model.ValidationError{Field: "seq", Reason: fmt.Sprintf("duplicate order %d", o.Seq)}
		}
		seqs[o.Seq] = struct{}{}
	}
	ids := make(map[uint64]struct{}, len(in.Flights))
	for _, f := range in.Flights {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := ids[f.ID]; dup {
			return &model.ValidationError{Field: "flight", Reason: fmt.Sprintf("duplicate flight %d", f.ID)}
		}
		if f.ID >= in.NextFlightID {
			return &model.ValidationError{Field: "flight", Reason: fmt.Sprintf("flight %d not below next id %d", f.ID, in.NextFlightID)}
		}
		ids[f.ID] = struct{}{}
	}
	return nil
}
