package plugins

import (
	"io"
	"time"

	"github.com/kilianp07/dispatchopt/config"
	"github.com/kilianp07/dispatchopt/connectors/market"
	"github.com/kilianp07/dispatchopt/core/dispatch"
	"github.com/kilianp07/dispatchopt/core/forecast"
	"github.com/kilianp07/dispatchopt/pkg/dataset"
	"github.com/kilianp07/dispatchopt/pkg/export"
)

func init() {
	RegisterForecast(config.SourceUniform, func(cfg *config.Config) (forecast.Engine, error) {
		u := cfg.Forecast.Uniform
		return forecast.UniformEngine{Min: u.Min, Max: u.Max, Seed: u.Seed}, nil
	})
	RegisterForecast(config.SourceCSV, func(cfg *config.Config) (forecast.Engine, error) {
		series, err := dataset.ReadSeriesFile(cfg.Forecast.SeriesCSV)
		if err != nil {
			return nil, err
		}
		return forecast.StaticEngine{Values: series}, nil
	})
	RegisterForecast(config.SourceMarket, func(cfg *config.Config) (forecast.Engine, error) {
		start, err := cfg.Grid.StartTime()
		if err != nil {
			return nil, err
		}
		mc := cfg.Forecast.Market
		mc.SetDefaults()
		return market.Engine{
			Client:  market.NewClient(mc),
			Start:   start,
			Step:    time.Duration(cfg.Grid.StepMinutes * float64(time.Minute)),
			Timeout: time.Duration(mc.TimeoutSeconds) * time.Second,
		}, nil
	})

	RegisterReporter(config.FormatText, textReporter{})
	RegisterReporter(config.FormatJSON, jsonReporter{})
	RegisterReporter(config.FormatCSV, csvReporter{})
	RegisterReporter(config.FormatHTML, htmlReporter{})
}

type jsonReporter struct{}

func (jsonReporter) Storage(w io.Writer, res dispatch.StorageResult, _ time.Time) error {
	return export.WriteStorageJSON(w, *res.Schedule)
}

func (jsonReporter) Fleet(w io.Writer, res dispatch.FleetResult) error {
	return export.WriteFleetJSON(w, *res.Schedule)
}

type csvReporter struct{}

func (csvReporter) Storage(w io.Writer, res dispatch.StorageResult, start time.Time) error {
	return export.WriteStorageCSV(w, *res.Schedule, start)
}

func (csvReporter) Fleet(w io.Writer, res dispatch.FleetResult) error {
	return export.WriteFleetCSV(w, *res.Schedule)
}

type htmlReporter struct{}

func (htmlReporter) Storage(w io.Writer, res dispatch.StorageResult, start time.Time) error {
	return export.WriteStorageHTML(w, *res.Schedule, start)
}

func (htmlReporter) Fleet(w io.Writer, res dispatch.FleetResult) error {
	return export.WriteFleetHTML(w, *res.Schedule)
}
