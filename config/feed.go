package config

import (
	"fmt"

	"github.com/kilianp07/skydispatch/internal/eventbus"
)

// FeedConfig configures how remote observers subscribe to snapshots.
type FeedConfig struct {
	Buffer int `json:"buffer"`
	// Policy is "latest" or "drop".
	Policy string `json:"policy"`
}

// SetDefaults applies sane defaults.
func (c *FeedConfig) SetDefaults() {
	if c.Buffer == 0 {
		c.Buffer = 16
	}
	if c.Policy == "" {
		c.Policy = "latest"
	}
}

// Validate checks the buffer and policy.
func (c FeedConfig) Validate() error {
	if c.Buffer < 0 {
		return fmt.Errorf("buffer must not be negative")
	}
	if _, ok := eventbus.ParsePolicy(c.Policy); !ok {
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	return nil
}

// ParsedPolicy returns the eventbus policy for Policy.
func (c FeedConfig) ParsedPolicy() eventbus.Policy {
	p, _ := eventbus.ParsePolicy(c.Policy)
	return p
}

// GRPCConfig configures the monitor server.
type GRPCConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *GRPCConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":50051"
	}
}

// Validate checks the listen address.
func (c GRPCConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	return nil
}
