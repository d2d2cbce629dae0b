package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/dispatchopt/core/model"
)

// ErrNoPrice is returned when a slot starts before the first published price.
var ErrNoPrice = errors.New("no market price covers slot")

// Engine serves market prices on a fixed grid. Each slot takes the latest
// price published at or before its start, so hourly prices are held across
// quarter-hour slots.
type Engine struct {
	Client  *Client
	Start   time.Time
	Step    time.Duration
	Timeout time.Duration
}

// Series implements forecast.Engine for the price signal only.
func (e Engine) Series(kind model.SignalKind, slots int) (model.ExogenousSignal, error) {
	if kind != model.SignalPrice {
		return model.ExogenousSignal{}, fmt.Errorf("market source only provides %s, not %s", model.SignalPrice, kind)
	}
	ctx := context.Background()
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	end := e.Start.Add(time.Duration(slots) * e.Step)
	resp, err := e.Client.Fetch(ctx, e.Start, end)
	if err != nil {
		return model.ExogenousSignal{}, err
	}
	points, err := resp.Prices()
	if err != nil {
		return model.ExogenousSignal{}, err
	}
	values, err := Resample(points, e.Start, e.Step, slots)
	if err != nil {
		return model.ExogenousSignal{}, err
	}
	return model.ExogenousSignal{Kind: model.SignalPrice, Values: values}, nil
}

// Resample holds each price until the next one. points must be sorted.
func Resample(points []PricePoint, start time.Time, step time.Duration, slots int) ([]float64, error) {
	values := make([]float64, slots)
	j := -1
	for t := range values {
		at := start.Add(time.Duration(t) * step)
		for j+1 < len(points) && !points[j+1].Start.After(at) {
			j++
		}
		if j < 0 {
			return nil, fmt.Errorf("%w %d (%s)", ErrNoPrice, t, at.Format(time.RFC3339))
		}
		values[t] = points[j].Price
	}
	return values, nil
}
