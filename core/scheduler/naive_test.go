package scheduler

import (
	"errors"
	"testing"

	"github.com/kilianp07/skydispatch/core/model"
)

func order(seq uint64, placed int64, dest string, p model.Priority) model.Order {
	return model.Order{Seq: seq, PlacedAt: placed, Destination: dest, Priority: p}
}

func TestScheduleEmptyQueue(t *testing.T) {
	s := &NaiveScheduler{DispatchDelay: 5}
	plan, err := s.Schedule(Input{Now: 3, NextFlightID: 1})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !plan.Empty() {
		t.Fatalf("expected empty plan got %#v", plan)
	}
}

func TestScheduleEmergencyAndResupplyShareFlight(t *testing.T) {
	s := &NaiveScheduler{DispatchDelay: 5}
	in := Input{
		Now:          0,
		NextFlightID: 1,
		Pending: []model.Order{
			order(1, 0, "B", model.PriorityResupply),
			order(2, 0, "A", model.PriorityEmergency),
		},
	}
	plan, err := s.Schedule(in)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(plan.NewFlights) != 1 {
		t.Fatalf("expected one new flight got %d", len(plan.NewFlights))
	}
	if plan.NewFlights[0].LaunchTime != 5 || plan.NewFlights[0].ID != 1 {
		t.Fatalf("unexpected flight %#v", plan.NewFlights[0])
	}
	want := []Placement{{OrderSeq: 2, FlightID: 1}, {OrderSeq: 1, FlightID: 1}}
	if len(plan.Placements) != len(want) {
		t.Fatalf("expected %d placements got %d", len(want), len(plan.Placements))
	}
	for i, p := range want {
		if plan.Placements[i] != p {
			t.Fatalf("placement %d: expected %#v got %#v", i, p, plan.Placements[i])
		}
	}
	if in.Pending[0].Seq != 1 {
		t.Fatalf("input slice was reordered")
	}
}

func TestScheduleOrderingWithinPriority(t *testing.T) {
	s := &NaiveScheduler{DispatchDelay: 1, MaxOrdersPerFlight: 1}
	in := Input{
		Now:          10,
		NextFlightID: 4,
		Pending: []model.Order{
			order(3, 9, "C", model.PriorityResupply),
			order(1, 9, "A", model.PriorityResupply),
			order(2, 2, "B", model.PriorityResupply),
		},
	}
	plan, err := s.Schedule(in)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	gotSeqs := []uint64{plan.Placements[0].OrderSeq, plan.Placements[1].OrderSeq, plan.Placements[2].OrderSeq}
	if gotSeqs[0] != 2 || gotSeqs[1] != 1 || gotSeqs[2] != 3 {
		t.Fatalf("unexpected processing order %v", gotSeqs)
	}
	if len(plan.NewFlights) != 3 {
		t.Fatalf("capacity one should open three flights, got %d", len(plan.NewFlights))
	}
	for i, f := range plan.NewFlights {
		if f.ID != uint64(4+i) || f.LaunchTime != 11 {
			t.Fatalf("unexpected flight %#v", f)
		}
	}
}

func TestScheduleReusesMostRecentOpenFlight(t *testing.T) {
	s := &NaiveScheduler{DispatchDelay: 5}
	in := Input{
		Now:          7,
		NextFlightID: 4,
		Flights: []model.Flight{
			{ID: 1, LaunchTime: 5, Orders: []model.Order{order(1, 0, "A", model.PriorityResupply)}},
			{ID: 2, LaunchTime: 9, Orders: []model.Order{order(2, 4, "B", model.PriorityResupply)}},
			{ID: 3, LaunchTime: 10, Orders: []model.Order{order(3, 5, "C", model.PriorityResupply)}},
		},
		Pending: []model.Order{order(4, 7, "D", model.PriorityEmergency)},
	}
	plan, err := s.Schedule(in)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(plan.NewFlights) != 0 {
		t.Fatalf("expected no new flight got %#v", plan.NewFlights)
	}
	if plan.Placements[0].FlightID != 3 {
		t.Fatalf("expected most recent open flight 3 got %d", plan.Placements[0].FlightID)
	}
}

func TestScheduleOpensFlightWhenAllLaunched(t *testing.T) {
	s := &NaiveScheduler{DispatchDelay: 5}
	in := Input{
		Now:          9,
		NextFlightID: 2,
		Flights:      []model.Flight{{ID: 1, LaunchTime: 9, Orders: []model.Order{order(1, 0, "A", model.PriorityResupply)}}},
		Pending:      []model.Order{order(2, 8, "B", model.PriorityResupply)},
	}
	plan, err := s.Schedule(in)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(plan.NewFlights) != 1 || plan.NewFlights[0].ID != 2 || plan.NewFlights[0].LaunchTime != 14 {
		t.Fatalf("unexpected new flights %#v", plan.NewFlights)
	}
}

func TestScheduleFallsBackToOlderFlightWithRoom(t *testing.T) {
	s := &NaiveScheduler{DispatchDelay: 5, MaxOrdersPerFlight: 2}
	in := Input{
		Now:          0,
		NextFlightID: 3,
		Flights: []model.Flight{
			{ID: 1, LaunchTime: 4, Orders: []model.Order{order(1, 0, "A", model.PriorityResupply)}},
			{ID: 2, LaunchTime: 5, Orders: []model.Order{order(2, 0, "B", model.PriorityResupply), order(3, 0, "C", model.PriorityResupply)}},
		},
		Pending: []model.Order{order(4, 0, "D", model.PriorityResupply)},
	}
	plan, err := s.Schedule(in)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(plan.NewFlights) != 0 || plan.Placements[0].FlightID != 1 {
		t.Fatalf("expected placement on flight 1 got %#v", plan)
	}
}

func TestScheduleKeepsOrdersPendingWhenFleetExhausted(t *testing.T) {
	s := &NaiveScheduler{DispatchDelay: 5, MaxOrdersPerFlight: 1, MaxActiveFlights: 2}
	in := Input{
		Now:          3,
		NextFlightID: 2,
		Flights: []model.Flight{
			{ID: 1, LaunchTime: 0, Orders: []model.Order{order(1, 0, "A", model.PriorityResupply)}},
		},
		Pending: []model.Order{
			order(2, 1, "B", model.PriorityResupply),
			order(3, 2, "C", model.PriorityEmergency),
			order(4, 2, "D", model.PriorityResupply),
		},
	}
	plan, err := s.Schedule(in)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(plan.NewFlights) != 1 || plan.NewFlights[0].ID != 2 {
		t.Fatalf("expected one new flight under the cap, got %#v", plan.NewFlights)
	}
	want := []Placement{{OrderSeq: 3, FlightID: 2}}
	if len(plan.Placements) != 1 || plan.Placements[0] != want[0] {
		t.Fatalf("expected only the emergency order placed, got %#v", plan.Placements)
	}

	s.MaxActiveFlights = 0
	plan, err = s.Schedule(in)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(plan.NewFlights) != 3 {
		t.Fatalf("unbounded fleet should open a flight per order, got %d", len(plan.NewFlights))
	}
}

func TestScheduleRejectsMalformedInput(t *testing.T) {
	s := &NaiveScheduler{DispatchDelay: 5}
	cases := map[string]Input{
		"negative time": {NextFlightID: 1, Pending: []model.Order{order(1, -3, "A", model.PriorityResupply)}},
		"missing seq":   {NextFlightID: 1, Pending: []model.Order{order(0, 1, "A", model.PriorityResupply)}},
		"duplicate seq": {NextFlightID: 1, Pending: []model.Order{order(1, 1, "A", model.PriorityResupply), order(1, 2, "B", model.PriorityResupply)}},
		"duplicate flight": {NextFlightID: 3, Flights: []model.Flight{
			{ID: 2, LaunchTime: 5, Orders: []model.Order{order(1, 0, "A", model.PriorityResupply)}},
			{ID: 2, LaunchTime: 6, Orders: []model.Order{order(2, 0, "B", model.PriorityResupply)}},
		}},
		"empty flight":  {NextFlightID: 2, Flights: []model.Flight{{ID: 1, LaunchTime: 5}}},
		"stale next id": {NextFlightID: 1, Flights: []model.Flight{{ID: 1, LaunchTime: 5, Orders: []model.Order{order(1, 0, "A", model.PriorityResupply)}}}},
	}
	for name, in := range cases {
		_, err := s.Schedule(in)
		if !errors.Is(err, model.ErrValidation) {
			t.Fatalf("%s: expected validation error got %v", name, err)
		}
	}
}
