package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/dispatchopt/core/dispatch"
	"github.com/kilianp07/dispatchopt/core/model"
)

type StorageDef struct {
	ID                  string  `yaml:"id"`
	SoCMin              float64 `yaml:"soc_min"`
	SoCMax              float64 `yaml:"soc_max"`
	InitialSoC          float64 `yaml:"initial_soc"`
	MaxChargeKW         float64 `yaml:"max_charge_kw"`
	MaxDischargeKW      float64 `yaml:"max_discharge_kw"`
	ChargeEfficiency    float64 `yaml:"charge_efficiency"`
	DischargeEfficiency float64 `yaml:"discharge_efficiency"`
}

func (s StorageDef) ToModel() model.StorageAsset {
	return model.StorageAsset{
		ID:                  s.ID,
		SoCMin:              s.SoCMin,
		SoCMax:              s.SoCMax,
		InitialSoC:          s.InitialSoC,
		MaxChargeKW:         s.MaxChargeKW,
		MaxDischargeKW:      s.MaxDischargeKW,
		ChargeEfficiency:    s.ChargeEfficiency,
		DischargeEfficiency: s.DischargeEfficiency,
	}.WithDefaults()
}

type UnitDef struct {
	ID   string  `yaml:"id"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Cost float64 `yaml:"cost"`
}

// Expected holds the assertions of a scenario. Nil fields are not checked.
type Expected struct {
	Status    string             `yaml:"status"`
	Objective *float64           `yaml:"objective,omitempty"`
	MaxImport *float64           `yaml:"max_import,omitempty"`
	FinalSoC  *float64           `yaml:"final_soc,omitempty"`
	Outputs   map[string]float64 `yaml:"outputs,omitempty"`
	ConfigErr string             `yaml:"config_error,omitempty"`
	Tolerance float64            `yaml:"tolerance,omitempty"`
}

// Scenario is one optimization case. Kind is "storage" or "fleet".
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Kind        string      `yaml:"kind"`
	Slots       int         `yaml:"slots"`
	StepMinutes float64     `yaml:"step_minutes"`
	Regime      string      `yaml:"regime,omitempty"`
	Method      string      `yaml:"method,omitempty"`
	Storage     StorageDef  `yaml:"storage"`
	Price       []float64   `yaml:"price,omitempty"`
	Demand      []float64   `yaml:"demand,omitempty"`
	Generation  []float64   `yaml:"generation,omitempty"`
	Units       []UnitDef   `yaml:"units,omitempty"`
	Weights     *UnitWeight `yaml:"weights,omitempty"`
	Expected    Expected    `yaml:"expected"`
}

type UnitWeight struct {
	Load float64 `yaml:"load"`
	Cost float64 `yaml:"cost"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Kind != "storage" && sc.Kind != "fleet" {
		return nil, fmt.Errorf("%s: unknown kind %q", path, sc.Kind)
	}
	return &sc, nil
}

// StorageProblem converts the scenario into an optimizer request.
func (sc *Scenario) StorageProblem() (dispatch.StorageProblem, error) {
	g, err := model.NewTimeGrid(sc.Slots, time.Duration(sc.StepMinutes*float64(time.Minute)))
	if err != nil {
		return dispatch.StorageProblem{}, err
	}
	return dispatch.StorageProblem{
		Grid:   g,
		Asset:  sc.Storage.ToModel(),
		Regime: dispatch.Regime(sc.Regime),
		Method: dispatch.Method(sc.Method),
		Inputs: dispatch.StorageInputs{
			Price:      model.ExogenousSignal{Kind: model.SignalPrice, Values: sc.Price},
			Demand:     model.ExogenousSignal{Kind: model.SignalDemand, Values: sc.Demand},
			Generation: model.ExogenousSignal{Kind: model.SignalGeneration, Values: sc.Generation},
		},
	}, nil
}

// FleetProblem converts the scenario into an optimizer request. Scenarios
// without units use the built-in plant table.
func (sc *Scenario) FleetProblem() dispatch.FleetProblem {
	p := dispatch.FleetProblem{Weights: dispatch.DefaultWeights}
	if sc.Weights != nil {
		p.Weights = model.Weights{Load: sc.Weights.Load, Cost: sc.Weights.Cost}
	}
	if len(sc.Units) == 0 {
		p.Units = dispatch.DefaultPlants()
		return p
	}
	for _, u := range sc.Units {
		p.Units = append(p.Units, model.GenerationUnit{ID: u.ID, MinKW: u.Min, MaxKW: u.Max, Cost: u.Cost})
	}
	return p
}
