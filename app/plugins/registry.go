package plugins

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/kilianp07/dispatchopt/config"
	"github.com/kilianp07/dispatchopt/core/dispatch"
	"github.com/kilianp07/dispatchopt/core/forecast"
)

// ForecastFactory builds an exogenous signal source. Sources read the
// forecast section and, when they fetch by date, the grid section.
type ForecastFactory func(cfg *config.Config) (forecast.Engine, error)

// Reporter writes finished schedules in one output format. Results passed in
// always carry a schedule.
type Reporter interface {
	Storage(w io.Writer, res dispatch.StorageResult, start time.Time) error
	Fleet(w io.Writer, res dispatch.FleetResult) error
}

var (
	Forecasts = map[string]ForecastFactory{}
	Reporters = map[string]Reporter{}
)

func RegisterForecast(name string, f ForecastFactory) { Forecasts[name] = f }
func RegisterReporter(name string, r Reporter)        { Reporters[name] = r }

// NewForecast builds the engine registered for cfg.Forecast.Source.
func NewForecast(cfg *config.Config) (forecast.Engine, error) {
	f, ok := Forecasts[cfg.Forecast.Source]
	if !ok {
		return nil, fmt.Errorf("unknown forecast source %q (known: %v)", cfg.Forecast.Source, names(Forecasts))
	}
	return f(cfg)
}

// ReporterFor returns the reporter registered for format.
func ReporterFor(format string) (Reporter, error) {
	r, ok := Reporters[format]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (known: %v)", format, names(Reporters))
	}
	return r, nil
}

func names[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
