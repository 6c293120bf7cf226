package config

import (
	"fmt"
	"time"
)

// SimulationConfig holds the runner constants and wall-clock pacing.
type SimulationConfig struct {
	// Step is the simulated time added by each tick.
	Step int64 `json:"step"`
	// Speed is the distance every flight covers per time unit.
	Speed int32 `json:"speed"`
	// DestinationDistance is the route length added per loaded order.
	DestinationDistance int64 `json:"destination_distance"`
	// TickInterval paces ticks in wall-clock time, e.g. "1s".
	TickInterval time.Duration `json:"tick_interval"`
	// OrdersCSV optionally replays orders from a CSV file.
	OrdersCSV string `json:"orders_csv"`
}

// SetDefaults applies sane defaults.
func (c *SimulationConfig) SetDefaults() {
	if c.Step == 0 {
		c.Step = 1
	}
	if c.Speed == 0 {
		c.Speed = 30
	}
	if c.DestinationDistance == 0 {
		c.DestinationDistance = 1800
	}
	if c.TickInterval == 0 {
		c.TickInterval = time.Second
	}
}

// Validate checks the constants are usable.
func (c SimulationConfig) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("step must be positive")
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be positive")
	}
	if c.DestinationDistance <= 0 {
		return fmt.Errorf("destination_distance must be positive")
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("tick_interval must not be negative")
	}
	return nil
}
