package plugins

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kilianp07/dispatchopt/core/dispatch"
)

// textReporter prints an aligned summary for terminals.
type textReporter struct{}

func (textReporter) Storage(w io.Writer, res dispatch.StorageResult, start time.Time) error {
	s := res.Schedule
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "run %s\tasset %s\tregime %s\tmethod %s\t\n", res.RunID, s.AssetID, res.Regime, orDash(string(res.Method)))
	fmt.Fprintln(tw, "slot\ttime\tcharge_kw\tdischarge_kw\tsoc_kwh\tgrid_import_kw\t")
	step := time.Duration(s.StepHours * float64(time.Hour))
	for _, sl := range s.Slots {
		ts := "-"
		if !start.IsZero() {
			ts = start.Add(time.Duration(sl.Slot) * step).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.3f\t%.3f\t%.3f\t\n", sl.Slot, ts, sl.ChargeKW, sl.DischargeKW, sl.SoC, sl.GridImportKW)
	}
	if res.Regime == dispatch.RegimeLossless {
		fmt.Fprintf(tw, "revenue\t%.3f\t\n", s.Revenue)
	} else {
		fmt.Fprintf(tw, "grid import\t%.3f\t\n", s.GridImport)
	}
	fmt.Fprintf(tw, "energy charged\t%.3f\t\n", s.EnergyCharged)
	fmt.Fprintf(tw, "energy discharged\t%.3f\t\n", s.EnergyDischarged)
	fmt.Fprintf(tw, "final soc\t%.3f\t\n", s.FinalSoC)
	return tw.Flush()
}

func (textReporter) Fleet(w io.Writer, res dispatch.FleetResult) error {
	f := res.Schedule
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "run %s\tscore %.6f\t\n", res.RunID, res.Score)
	fmt.Fprintln(tw, "unit\toutput_kw\tmax_kw\tunit_cost\ttotal_cost\tutilization_pct\t")
	for _, u := range f.Ranked() {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.1f\t\n", u.ID, u.OutputKW, u.MaxKW, u.Cost, u.TotalCost, u.Utilization)
	}
	fmt.Fprintf(tw, "total power\t%.2f\t\n", f.TotalPower)
	fmt.Fprintf(tw, "total cost\t%.2f\t\n", f.TotalCost)
	fmt.Fprintf(tw, "average cost\t%.4f\t\n", f.AverageCost)
	fmt.Fprintf(tw, "total capacity\t%.2f\t\n", f.TotalCapacity)
	fmt.Fprintf(tw, "capacity utilization\t%.1f%%\t\n", f.CapacityUtilization)
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
