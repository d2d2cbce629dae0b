// Package dataset reads exogenous series and plant tables from CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/dispatchopt/core/model"
)

// ErrNoColumns is returned when a series file carries none of the known
// signal columns.
var ErrNoColumns = errors.New("dataset: no price, demand or generation column")

// ReadSeries reads a CSV with a header row. Columns named price, demand or
// generation are parsed as series; any other column, such as a timestamp, is
// ignored.
func ReadSeries(r io.Reader) (map[model.SignalKind][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	cols := make(map[int]model.SignalKind)
	for i, h := range header {
		if k, err := model.ParseSignalKind(strings.ToLower(strings.TrimSpace(h))); err == nil {
			cols[i] = k
		}
	}
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}

	out := make(map[model.SignalKind][]float64, len(cols))
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}
		for i, k := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: line %d column %s: %w", line, k, err)
			}
			out[k] = append(out[k], v)
		}
	}
	return out, nil
}

// ReadSeriesFile opens path and calls ReadSeries.
func ReadSeriesFile(path string) (map[model.SignalKind][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadSeries(f)
}

// ReadPlants reads a plant table with columns plant, min, max and price, in
// any order. The units are validated as a fleet before being returned.
func ReadPlants(r io.Reader) ([]model.GenerationUnit, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range []string{"plant", "min", "max", "price"} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("dataset: missing column %q", c)
		}
	}

	var units []model.GenerationUnit
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}
		u := model.GenerationUnit{ID: strings.TrimSpace(rec[idx["plant"]])}
		for _, f := range []struct {
			col string
			dst *float64
		}{{"min", &u.MinKW}, {"max", &u.MaxKW}, {"price", &u.Cost}} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[f.col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: line %d column %s: %w", line, f.col, err)
			}
			*f.dst = v
		}
		units = append(units, u)
	}
	if err := model.ValidateFleet(units); err != nil {
		return nil, err
	}
	return units, nil
}

// ReadPlantsFile opens path and calls ReadPlants.
func ReadPlantsFile(path string) ([]model.GenerationUnit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadPlants(f)
}
