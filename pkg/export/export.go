package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/dispatchopt/core/model"
)

// WriteStorageJSON writes the storage schedule to w in JSON format.
func WriteStorageJSON(w io.Writer, s model.StorageSchedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteStorageCSV writes one row per slot. The timeslot column is the slot
// start derived from start and the grid step; it is left empty when start is
// the zero time.
func WriteStorageCSV(w io.Writer, s model.StorageSchedule, start time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"slot", "timeslot", "charge_kw", "discharge_kw", "soc_kwh", "grid_import_kw"}); err != nil {
		return err
	}
	step := time.Duration(s.StepHours * float64(time.Hour))
	for _, sl := range s.Slots {
		ts := ""
		if !start.IsZero() {
			ts = start.Add(time.Duration(sl.Slot) * step).Format(time.RFC3339)
		}
		rec := []string{
			strconv.Itoa(sl.Slot),
			ts,
			fmtFloat(sl.ChargeKW),
			fmtFloat(sl.DischargeKW),
			fmtFloat(sl.SoC),
			fmtFloat(sl.GridImportKW),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFleetJSON writes the fleet schedule to w in JSON format.
func WriteFleetJSON(w io.Writer, f model.FleetSchedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// WriteFleetCSV writes one row per unit ranked by output, largest first.
func WriteFleetCSV(w io.Writer, f model.FleetSchedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"unit", "output_kw", "max_kw", "unit_cost", "total_cost", "utilization_pct"}); err != nil {
		return err
	}
	for _, u := range f.Ranked() {
		rec := []string{
			u.ID,
			fmtFloat(u.OutputKW),
			fmtFloat(u.MaxKW),
			fmtFloat(u.Cost),
			fmtFloat(u.TotalCost),
			fmtFloat(u.Utilization),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
