package model

import "fmt"

// Priority classifies an order for scheduling. Lower values rank first.
type Priority int

const (
	PriorityEmergency Priority = iota
	PriorityResupply
)

// String returns a human-readable representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityEmergency:
		return "Emergency"
	case PriorityResupply:
		return "Resupply"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityEmergency || p == PriorityResupply
}

// ParsePriority converts the textual form used in order files and payloads.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "Emergency":
		return PriorityEmergency, nil
	case "Resupply":
		return PriorityResupply, nil
	default:
		return 0, &ValidationError{Field: "priority", Reason: fmt.Sprintf("invalid priority %q", s)}
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Order is a request for delivery of something to a destination.
type Order struct {
	PlacedAt    int64    `json:"time"` // simulation seconds at which the order was placed
	Destination string   `json:"destination"`
	Priority    Priority `json:"priority"`
	// Seq is the arrival sequence number assigned when the order is accepted.
	// Zero means the order has not been accepted yet.
	Seq uint64 `json:"seq,omitempty"`
}

// Validate checks the fields supplied by the submitter.
func (o Order) Validate() error {
	if o.PlacedAt < 0 {
		return &ValidationError{Field: "time", Reason: fmt.Sprintf("negative placement time %d", o.PlacedAt)}
	}
	if o.Destination == "" {
		return &ValidationError{Field: "destination", Reason: "destination is required"}
	}
	if !o.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("invalid priority %d", int(o.Priority))}
	}
	return nil
}

// Before reports whether o must be scheduled ahead of other: emergencies
// first, then earliest placement, then arrival order.
func (o Order) Before(other Order) bool {
	if o.Priority != other.Priority {
		return o.Priority < other.Priority
	}
	if o.PlacedAt != other.PlacedAt {
		return o.PlacedAt < other.PlacedAt
	}
	return o.Seq < other.Seq
}
