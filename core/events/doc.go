// Package events defines the runner events emitted on the event bus.
//
// Available event types:
//   - OrderRejected: an order failed validation at ingestion
//   - FlightLaunched: a new flight was opened by the scheduler
//   - FlightRetired: a flight completed its route and left the fleet
//   - TickSkipped: the scheduler rejected its input for one tick
//   - Halted: the simulation stopped on an invariant violation
package events
