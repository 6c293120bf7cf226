package journal

import "context"

// Record is the journal entry written after every tick.
type Record struct {
	Time     int64  `json:"time"`
	Assigned int    `json:"assigned"`
	Launched int    `json:"launched"`
	Retired  int    `json:"retired"`
	Rejected int    `json:"rejected"`
	Pending  int    `json:"pending"`
	Active   int    `json:"active"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Query filters journal records. Bounds are inclusive; To <= 0 means no
// upper bound. Limit <= 0 returns every match.
type Query struct {
	From       int64
	To         int64
	ErrorsOnly bool
	Limit      int
}

// Match reports whether r satisfies the filters of q, ignoring Limit.
func (q Query) Match(r Record) bool {
	if r.Time < q.From {
		return false
	}
	if q.To > 0 && r.Time > q.To {
		return false
	}
	if q.ErrorsOnly && r.Error == "" && !r.Skipped {
		return false
	}
	return true
}

// Store persists tick records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore drops every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
