// Package runner owns the fleet state and advances it in discrete ticks.
//
// Each tick ingests submitted orders, asks the configured scheduler for a
// plan, applies it, advances simulated time, retires completed flights and
// publishes a deep-copied StatusUpdate on the feed. A plan that would break
// the fleet invariants halts the runner for good: the failing tick is rolled
// back and the feed is closed.
package runner
