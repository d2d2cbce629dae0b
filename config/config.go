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

	"github.com/kilianp07/dispatchopt/core/dispatch"
	"github.com/kilianp07/dispatchopt/core/metrics"
	"github.com/kilianp07/dispatchopt/core/model"
	_ "github.com/kilianp07/dispatchopt/infra/metrics"
	"github.com/kilianp07/dispatchopt/infra/mqtt"
)

type Config struct {
	Grid GridConfig `json:"grid"`
	// Storage is nil when the file has no storage section. A present section
	// is used as written, even when every field is zero.
	Storage  *model.StorageAsset `json:"storage"`
	Fleet    FleetConfig         `json:"fleet"`
	Solver   dispatch.Config     `json:"solver"`
	Forecast ForecastConfig      `json:"forecast"`
	Metrics  metrics.Config      `json:"metrics"`
	// MQTT is nil when schedules are not published.
	MQTT   *mqtt.Config `json:"mqtt"`
	Output OutputConfig `json:"output"`
	Sentry SentryConfig `json:"sentry"`
}

// Load reads the configuration file at path, applies K_ prefixed environment
// overrides, fills defaults and validates every section. An empty path loads
// defaults and environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
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
	}
	// Optional environment overrides, e.g. K_SOLVER__REGIME=efficiency.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
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
	c.Grid.SetDefaults()
	if c.Storage == nil {
		s := DefaultStorage()
		c.Storage = &s
	}
	*c.Storage = c.Storage.WithDefaults()
	if c.Storage.ID == "" {
		c.Storage.ID = "battery"
	}
	c.Fleet.SetDefaults()
	c.Solver.SetDefaults()
	c.Forecast.SetDefaults()
	if c.MQTT != nil {
		c.MQTT.SetDefaults()
	}
	c.Output.SetDefaults()
}

// Validate checks every section. Storage and fleet sections are validated
// here so a bad file fails at load time rather than at the first run.
func (c Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if c.Storage != nil {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
	}
	if err := c.Fleet.Validate(); err != nil {
		return err
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if c.Forecast.Source == SourceMarket && c.Grid.Start == "" {
		return fmt.Errorf("grid.start is required for the market forecast source")
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if c.MQTT != nil {
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	}
	return c.Output.Validate()
}

// DefaultStorage is a 100 kWh battery with 100 kW converters starting at
// 60 kWh.
func DefaultStorage() model.StorageAsset {
	return model.StorageAsset{
		ID:             "battery",
		SoCMin:         0,
		SoCMax:         100,
		InitialSoC:     60,
		MaxChargeKW:    100,
		MaxDischargeKW: 100,
	}
}
