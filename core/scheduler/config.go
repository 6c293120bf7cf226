package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StrategyNaive selects NaiveScheduler.
const StrategyNaive = "naive"

// DefaultDispatchDelay is the launch delay used when a configuration file
// does not set dispatch_delay. Zero is a valid explicit value.
const DefaultDispatchDelay int64 = 60

// Config defines scheduling parameters loaded from configuration.
type Config struct {
	Strategy string `json:"strategy" yaml:"strategy"`
	// DispatchDelay is added to the current time to compute the launch time
	// of a newly opened flight.
	DispatchDelay int64 `json:"dispatch_delay" yaml:"dispatch_delay"`
	// MaxOrdersPerFlight caps the orders loaded on one flight. Zero means unbounded.
	MaxOrdersPerFlight int `json:"max_orders_per_flight" yaml:"max_orders_per_flight"`
	// MaxActiveFlights caps the fleet: flights launched or awaiting launch.
	// Zero means unbounded.
	MaxActiveFlights int `json:"max_active_flights" yaml:"max_active_flights"`
}

// SetDefaults applies sane defaults. DispatchDelay is left alone since zero
// means "launch immediately"; DecodeConfig and the config loader seed
// DefaultDispatchDelay before decoding instead.
func (c *Config) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyNaive
	}
}

// Validate checks the parameters.
func (c Config) Validate() error {
	if c.Strategy != StrategyNaive {
		return fmt.Errorf("unknown scheduling strategy %q", c.Strategy)
	}
	if c.DispatchDelay < 0 {
		return fmt.Errorf("dispatch_delay must not be negative")
	}
	if c.MaxOrdersPerFlight < 0 {
		return fmt.Errorf("max_orders_per_flight must not be negative")
	}
	if c.MaxActiveFlights < 0 {
		return fmt.Errorf("max_active_flights must not be negative")
	}
	return nil
}

// LoadConfig loads a Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodeConfig(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// DecodeConfig reads from r to decode a Config. Defaults are applied and the
// result is validated.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	cfg := Config{DispatchDelay: DefaultDispatchDelay}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

// New builds the scheduler selected by cfg.
func New(cfg Config) (Scheduler, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Strategy {
	case StrategyNaive:
		return &NaiveScheduler{
			DispatchDelay:      cfg.DispatchDelay,
			MaxOrdersPerFlight: cfg.MaxOrdersPerFlight,
			MaxActiveFlights:   cfg.MaxActiveFlights,
		}, nil
	}
	return nil, fmt.Errorf("unknown scheduling strategy %q", cfg.Strategy)
}
