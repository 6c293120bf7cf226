// Package scheduler decides which flight carries each pending order.
// Schedulers are pure: they read a copy of the fleet state and return a plan
// that the runner applies.
package scheduler
