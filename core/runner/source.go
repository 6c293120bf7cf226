package runner

import (
	"io"
	"slices"

	"github.com/kilianp07/skydispatch/core/model"
)

// OrderSource feeds orders that become available as simulated time passes.
type OrderSource interface {
	// Due returns the orders placed at or before now that were not returned yet.
	Due(now int64) []model.Order
}

// ReplaySource releases a fixed list of orders by their placement time.
type ReplaySource struct {
	orders []model.Order
	next   int
}

// NewReplaySource sorts a copy of orders by placement time, keeping the
// input order for equal times.
func NewReplaySource(orders []model.Order) *ReplaySource {
	cp := slices.Clone(orders)
	slices.SortStableFunc(cp, func(a, b model.Order) int {
		switch {
		case a.PlacedAt < b.PlacedAt:
			return -1
		case a.PlacedAt > b.PlacedAt:
			return 1
		}
		return 0
	})
	return &ReplaySource{orders: cp}
}

// LoadReplaySource reads "time, destination, priority" CSV lines.
func LoadReplaySource(r io.Reader) (*ReplaySource, error) {
	orders, err := model.ReadOrdersCSV(r)
	if err != nil {
		return nil, err
	}
	return NewReplaySource(orders), nil
}

// Due implements OrderSource.
func (s *ReplaySource) Due(now int64) []model.Order {
	start := s.next
	for s.next < len(s.orders) && s.orders[s.next].PlacedAt <= now {
		s.next++
	}
	if start == s.next {
		return nil
	}
	return slices.Clone(s.orders[start:s.next])
}

// Remaining returns the number of orders not released yet.
func (s *ReplaySource) Remaining() int { return len(s.orders) - s.next }
