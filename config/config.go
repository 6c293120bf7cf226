package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/skydispatch/core/journal"
	"github.com/kilianp07/skydispatch/core/metrics"
	"github.com/kilianp07/skydispatch/core/scheduler"
	"github.com/kilianp07/skydispatch/infra/mqtt"
)

// EnvPrefix marks environment variables overriding file values.
// SKY_SCHEDULER__DISPATCH_DELAY=5 sets scheduler.dispatch_delay.
const EnvPrefix = "SKY_"

type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Scheduler  scheduler.Config `json:"scheduler"`
	Feed       FeedConfig       `json:"feed"`
	GRPC       GRPCConfig       `json:"grpc"`
	MQTT       mqtt.Config      `json:"mqtt"`
	Metrics    metrics.Config   `json:"metrics"`
	Journal    journal.Config   `json:"journal"`
	Sentry     SentryConfig     `json:"sentry"`
}

// Load reads a YAML or JSON file, applies environment overrides, fills
// defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	return load(k)
}

// Default returns the configuration used when no file is given. Environment
// overrides still apply.
func Default() (*Config, error) {
	return load(koanf.New("."))
}

func load(k *koanf.Koanf) (*Config, error) {
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	if !k.Exists("scheduler.dispatch_delay") {
		if err := k.Set("scheduler.dispatch_delay", scheduler.DefaultDispatchDelay); err != nil {
			return nil, err
		}
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Feed.SetDefaults()
	c.GRPC.SetDefaults()
	c.MQTT.SetDefaults()
	c.Journal.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section and names the failing one.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"simulation", c.Simulation.Validate},
		{"scheduler", c.Scheduler.Validate},
		{"feed", c.Feed.Validate},
		{"grpc", c.GRPC.Validate},
		{"mqtt", c.MQTT.Validate},
		{"journal", c.Journal.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	return nil
}
