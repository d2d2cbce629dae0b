package forecast

import (
	"fmt"

	"github.com/kilianp07/dispatchopt/core/model"
)

// Engine produces a series of the requested kind covering slots time slots.
type Engine interface {
	Series(kind model.SignalKind, slots int) (model.ExogenousSignal, error)
}

// StaticEngine serves fixed in-memory series, typically loaded from CSV.
type StaticEngine struct {
	Values map[model.SignalKind][]float64
}

// Series returns a copy of the configured series. The length must match slots
// exactly; a forecast is never padded or truncated.
func (s StaticEngine) Series(kind model.SignalKind, slots int) (model.ExogenousSignal, error) {
	v, ok := s.Values[kind]
	if !ok {
		return model.ExogenousSignal{}, fmt.Errorf("forecast: no %s series configured", kind)
	}
	if len(v) != slots {
		return model.ExogenousSignal{}, fmt.Errorf("forecast: %s series has %d values, want %d", kind, len(v), slots)
	}
	cp := make([]float64, len(v))
	copy(cp, v)
	return model.ExogenousSignal{Kind: kind, Values: cp}, nil
}
