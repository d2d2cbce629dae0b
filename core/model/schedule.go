package model

import "sort"

// SlotDispatch is the physical decision for one time slot.
type SlotDispatch struct {
	Slot         int     `json:"slot"`
	ChargeKW     float64 `json:"charge_kw"`
	DischargeKW  float64 `json:"discharge_kw"`
	SoC          float64 `json:"soc"`
	GridImportKW float64 `json:"grid_import_kw,omitempty"`
}

// StorageSchedule is the time-indexed result of a storage run. It is derived
// from solved variable values only and is meaningful only when the run status
// is optimal.
type StorageSchedule struct {
	AssetID          string         `json:"asset_id"`
	StepHours        float64        `json:"step_hours"`
	Slots            []SlotDispatch `json:"slots"`
	Objective        float64        `json:"objective"`
	Revenue          float64        `json:"revenue"`
	EnergyCharged    float64        `json:"energy_charged"`
	EnergyDischarged float64        `json:"energy_discharged"`
	GridImport       float64        `json:"grid_import"`
	FinalSoC         float64        `json:"final_soc"`
}

// UnitDispatch is the output of one generation unit.
type UnitDispatch struct {
	ID          string  `json:"id"`
	OutputKW    float64 `json:"output_kw"`
	MaxKW       float64 `json:"max_kw"`
	Cost        float64 `json:"cost"`
	TotalCost   float64 `json:"total_cost"`
	Utilization float64 `json:"utilization_pct"`
}

// FleetSchedule is the snapshot result of a fleet run.
type FleetSchedule struct {
	Units               []UnitDispatch `json:"units"`
	Objective           float64        `json:"objective"`
	TotalPower          float64        `json:"total_power"`
	TotalCost           float64        `json:"total_cost"`
	AverageCost         float64        `json:"average_cost"`
	TotalCapacity       float64        `json:"total_capacity"`
	CapacityUtilization float64        `json:"capacity_utilization_pct"`
}

// Outputs maps unit identifiers to their dispatched power.
func (f FleetSchedule) Outputs() map[string]float64 {
	out := make(map[string]float64, len(f.Units))
	for _, u := range f.Units {
		out[u.ID] = u.OutputKW
	}
	return out
}

// Ranked returns the units sorted by output, largest first. Ties keep the
// input order.
func (f FleetSchedule) Ranked() []UnitDispatch {
	cp := make([]UnitDispatch, len(f.Units))
	copy(cp, f.Units)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].OutputKW > cp[j].OutputKW })
	return cp
}
