package dispatch

import "github.com/kilianp07/dispatchopt/core/model"

// DefaultWeights trades load against cost 70/30.
var DefaultWeights = model.Weights{Load: 0.7, Cost: 0.3}

// DefaultPlants returns the reference 20-plant fleet. P20 is a bidirectional
// balancing unit.
func DefaultPlants() []model.GenerationUnit {
	return []model.GenerationUnit{
		{ID: "P1", MinKW: 10.4, MaxKW: 18.8, Cost: 7.00},
		{ID: "P2", MinKW: 17.0, MaxKW: 30.8, Cost: 7.00},
		{ID: "P3", MinKW: 21.4, MaxKW: 39.0, Cost: 7.00},
		{ID: "P4", MinKW: 15.2, MaxKW: 27.6, Cost: 1.38},
		{ID: "P5", MinKW: 35.2, MaxKW: 63.9, Cost: 1.35},
		{ID: "P6", MinKW: 28.7, MaxKW: 52.2, Cost: 1.36},
		{ID: "P7", MinKW: 40.5, MaxKW: 73.7, Cost: 1.34},
		{ID: "P8", MinKW: 283.3, MaxKW: 515.1, Cost: 3.77},
		{ID: "P9", MinKW: 5.3, MaxKW: 9.6, Cost: 3.51},
		{ID: "P10", MinKW: 10.3, MaxKW: 18.8, Cost: 3.48},
		{ID: "P11", MinKW: 6.4, MaxKW: 11.6, Cost: 3.48},
		{ID: "P12", MinKW: 5.2, MaxKW: 9.5, Cost: 4.01},
		{ID: "P13", MinKW: 11.2, MaxKW: 20.4, Cost: 2.08},
		{ID: "P14", MinKW: 35.8, MaxKW: 65.1, Cost: 2.08},
		{ID: "P15", MinKW: 5.0, MaxKW: 9.1, Cost: 3.00},
		{ID: "P16", MinKW: 34.2, MaxKW: 62.1, Cost: 1.26},
		{ID: "P17", MinKW: 65.9, MaxKW: 119.9, Cost: 3.00},
		{ID: "P18", MinKW: 22.0, MaxKW: 40.0, Cost: 3.02},
		{ID: "P19", MinKW: 312.1, MaxKW: 416.2, Cost: 6.14},
		{ID: "P20", MinKW: -500.0, MaxKW: 500.0, Cost: 10.00},
	}
}
