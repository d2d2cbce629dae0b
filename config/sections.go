package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/dispatchopt/connectors/market"
	"github.com/kilianp07/dispatchopt/core/dispatch"
	"github.com/kilianp07/dispatchopt/core/model"
)

// GridConfig defines the optimization horizon.
type GridConfig struct {
	Slots       int     `json:"slots"`
	StepMinutes float64 `json:"step_minutes"`
	// Start is the RFC 3339 time of slot 0. Empty means unanchored.
	Start string `json:"start"`
}

// SetDefaults applies one day of quarter-hour slots.
func (c *GridConfig) SetDefaults() {
	if c.Slots == 0 {
		c.Slots = 96
	}
	if c.StepMinutes == 0 {
		c.StepMinutes = 15
	}
}

// Validate checks the grid and the start time format.
func (c GridConfig) Validate() error {
	if _, err := c.TimeGrid(); err != nil {
		return err
	}
	if _, err := c.StartTime(); err != nil {
		return fmt.Errorf("grid.start: %w", err)
	}
	return nil
}

// TimeGrid converts the section into a validated grid.
func (c GridConfig) TimeGrid() (model.TimeGrid, error) {
	return model.NewTimeGrid(c.Slots, time.Duration(c.StepMinutes*float64(time.Minute)))
}

// StartTime parses Start; the zero time is returned when it is empty.
func (c GridConfig) StartTime() (time.Time, error) {
	if c.Start == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, c.Start)
}

// FleetConfig defines the generation fleet. Units are taken from PlantsCSV
// when set, from Units otherwise, and fall back to the built-in plant table.
type FleetConfig struct {
	PlantsCSV string                 `json:"plants_csv"`
	Units     []model.GenerationUnit `json:"units"`
	Weights   *model.Weights         `json:"weights"`
}

// SetDefaults applies the 0.7/0.3 load/cost weights.
func (c *FleetConfig) SetDefaults() {
	if c.Weights == nil {
		w := dispatch.DefaultWeights
		c.Weights = &w
	}
}

// Validate checks inline units and weights.
func (c FleetConfig) Validate() error {
	if c.PlantsCSV != "" && len(c.Units) > 0 {
		return fmt.Errorf("fleet: plants_csv and units are mutually exclusive")
	}
	if len(c.Units) > 0 {
		if err := model.ValidateFleet(c.Units); err != nil {
			return err
		}
	}
	if c.Weights != nil {
		return c.Weights.Validate()
	}
	return nil
}

// Forecast sources.
const (
	SourceUniform = "uniform"
	SourceCSV     = "csv"
	SourceMarket  = "market"
)

// UniformConfig parametrises the simulated forecast.
type UniformConfig struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Seed uint64  `json:"seed"`
}

// ForecastConfig selects where exogenous series come from.
type ForecastConfig struct {
	Source    string        `json:"source"`
	SeriesCSV string        `json:"series_csv"`
	Uniform   UniformConfig `json:"uniform"`
	Market    market.Config `json:"market"`
}

// SetDefaults simulates prices uniformly in [10, 20).
func (c *ForecastConfig) SetDefaults() {
	if c.Source == "" {
		c.Source = SourceUniform
	}
	if c.Uniform.Min == 0 && c.Uniform.Max == 0 {
		c.Uniform.Min, c.Uniform.Max = 10, 20
	}
	if c.Uniform.Seed == 0 {
		c.Uniform.Seed = 1
	}
	if c.Source == SourceMarket {
		c.Market.SetDefaults()
	}
}

// Validate checks the source and its settings.
func (c ForecastConfig) Validate() error {
	switch c.Source {
	case SourceUniform:
		if !(c.Uniform.Min < c.Uniform.Max) {
			return fmt.Errorf("forecast.uniform: min %v must be below max %v", c.Uniform.Min, c.Uniform.Max)
		}
	case SourceCSV:
		if c.SeriesCSV == "" {
			return fmt.Errorf("forecast.series_csv is required for the csv source")
		}
	case SourceMarket:
		return c.Market.Validate()
	default:
		return fmt.Errorf("forecast.source: unknown source %q", c.Source)
	}
	return nil
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatHTML = "html"
)

// OutputConfig selects how schedules are reported. An empty Path writes to
// stdout.
type OutputConfig struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

// SetDefaults selects the text summary.
func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = FormatText
	}
}

// Validate checks the format name.
func (c OutputConfig) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatCSV, FormatHTML:
		return nil
	default:
		return fmt.Errorf("output.format: unknown format %q", c.Format)
	}
}
