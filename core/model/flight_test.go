package model

import "testing"

func TestFlightStatusAndProgress(t *testing.T) {
	f := Flight{ID: 1, LaunchTime: 5, Orders: []Order{{Destination: "A"}, {Destination: "B"}}}
	if f.Status(4) != FlightScheduled {
		t.Fatalf("expected scheduled before launch")
	}
	if f.Status(5) != FlightInFlight {
		t.Fatalf("expected in flight at launch")
	}
	if p := f.Progress(3, 10); p != 0 {
		t.Fatalf("expected no progress before launch got %d", p)
	}
	if p := f.Progress(8, 10); p != 30 {
		t.Fatalf("expected 30 got %d", p)
	}
	if l := f.RouteLength(100); l != 200 {
		t.Fatalf("expected route 200 got %d", l)
	}
	if f.Completed(24, 10, 100) {
		t.Fatalf("flight should still be flying at 24")
	}
	if !f.Completed(25, 10, 100) {
		t.Fatalf("flight should be done at 25")
	}
}

func TestFlightValidateEmpty(t *testing.T) {
	if err := (Flight{ID: 3}).Validate(); err == nil {
		t.Fatalf("expected error for empty flight")
	}
}

func TestStatusUpdateCloneIsDeep(t *testing.T) {
	u := StatusUpdate{Time: 1, Speed: 2, Flights: []Flight{{ID: 1, Orders: []Order{{Destination: "A"}}}}}
	cp := u.Clone()
	cp.Flights[0].Orders[0].Destination = "Z"
	cp.Flights[0].LaunchTime = 99
	if u.Flights[0].Orders[0].Destination != "A" || u.Flights[0].LaunchTime != 0 {
		t.Fatalf("clone shares memory with original")
	}
}
