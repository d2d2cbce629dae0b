package forecast

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/dispatchopt/core/model"
)

// UniformEngine draws each slot independently from U(Min, Max). The same seed
// and kind always yield the same series, so simulated runs are reproducible.
type UniformEngine struct {
	Min  float64
	Max  float64
	Seed uint64
}

// Series implements Engine.
func (u UniformEngine) Series(kind model.SignalKind, slots int) (model.ExogenousSignal, error) {
	if slots < 1 {
		return model.ExogenousSignal{}, fmt.Errorf("forecast: slots must be positive, got %d", slots)
	}
	if !(u.Min < u.Max) {
		return model.ExogenousSignal{}, fmt.Errorf("forecast: uniform range [%v, %v] is empty", u.Min, u.Max)
	}
	dist := distuv.Uniform{
		Min: u.Min,
		Max: u.Max,
		Src: rand.NewPCG(u.Seed, uint64(kind)),
	}
	v := make([]float64, slots)
	for i := range v {
		v[i] = dist.Rand()
	}
	return model.ExogenousSignal{Kind: kind, Values: v}, nil
}
