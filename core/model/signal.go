package model

import "fmt"

// SignalKind identifies what an exogenous series measures.
type SignalKind int

const (
	SignalPrice SignalKind = iota
	SignalDemand
	SignalGeneration
)

// String returns a human-readable representation of the signal kind.
func (k SignalKind) String() string {
	switch k {
	case SignalPrice:
		return "price"
	case SignalDemand:
		return "demand"
	case SignalGeneration:
		return "generation"
	default:
		return "unknown"
	}
}

// ParseSignalKind is the inverse of SignalKind.String.
func ParseSignalKind(s string) (SignalKind, error) {
	switch s {
	case "price":
		return SignalPrice, nil
	case "demand":
		return SignalDemand, nil
	case "generation":
		return SignalGeneration, nil
	default:
		return 0, fmt.Errorf("unknown signal kind %q", s)
	}
}

// ExogenousSignal is a read-only series aligned one-to-one with a TimeGrid.
type ExogenousSignal struct {
	Kind   SignalKind
	Values []float64
}

// At returns the value for slot t.
func (s ExogenousSignal) At(t int) float64 { return s.Values[t] }

// Validate checks that the series covers the grid exactly with finite values.
func (s ExogenousSignal) Validate(g TimeGrid) error {
	field := "signal." + s.Kind.String()
	if len(s.Values) != g.Slots {
		return configErr(field, "length %d does not match %d slots", len(s.Values), g.Slots)
	}
	for t, v := range s.Values {
		if !finite(v) {
			return configErr(field, "slot %d is not finite", t)
		}
	}
	return nil
}
