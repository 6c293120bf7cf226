package journal

import (
	"fmt"
	"slices"

	"github.com/kilianp07/skydispatch/core/factory"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Config selects and configures the journal backend.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	Path    string `json:"path" yaml:"path"`
	// Rotation applies to the jsonl backend when MaxSizeMB > 0.
	MaxSizeMB  int `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults disables the journal when no backend is configured.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNone
	}
}

// Validate checks the backend name and path.
func (c Config) Validate() error {
	if !slices.Contains(registry.Types(), c.Backend) {
		return fmt.Errorf("journal: unknown backend %q", c.Backend)
	}
	if c.Backend != BackendNone && c.Path == "" {
		return fmt.Errorf("journal: path required for backend %q", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("journal: rotation settings must not be negative")
	}
	return nil
}

var registry = factory.NewRegistry[Store]()

func init() {
	_ = registry.Register(BackendNone, func(map[string]any) (Store, error) { return NopStore{}, nil })
	_ = registry.Register(BackendJSONL, func(conf map[string]any) (Store, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
		}
		return NewJSONLStore(c.Path)
	})
	_ = registry.Register(BackendSQLite, func(conf map[string]any) (Store, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return registry.Create(factory.ModuleConfig{
		Type: cfg.Backend,
		Conf: map[string]any{
			"path":         cfg.Path,
			"max_size_mb":  cfg.MaxSizeMB,
			"max_backups":  cfg.MaxBackups,
			"max_age_days": cfg.MaxAgeDays,
		},
	})
}
