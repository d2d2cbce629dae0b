package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/dispatchopt/core/model"
)

// WriteStorageHTML renders the SoC trajectory and the charge/discharge
// decisions as an HTML page.
func WriteStorageHTML(w io.Writer, s model.StorageSchedule, start time.Time) error {
	step := time.Duration(s.StepHours * float64(time.Hour))
	xAxis := make([]string, len(s.Slots))
	soc := make([]opts.LineData, len(s.Slots))
	charge := make([]opts.BarData, len(s.Slots))
	discharge := make([]opts.BarData, len(s.Slots))
	imports := make([]opts.LineData, len(s.Slots))
	for i, sl := range s.Slots {
		if start.IsZero() {
			xAxis[i] = fmt.Sprintf("t%d", sl.Slot)
		} else {
			xAxis[i] = start.Add(time.Duration(sl.Slot) * step).Format("2006-01-02 15:04")
		}
		soc[i] = opts.LineData{Value: sl.SoC}
		charge[i] = opts.BarData{Value: sl.ChargeKW}
		discharge[i] = opts.BarData{Value: -sl.DischargeKW}
		imports[i] = opts.LineData{Value: sl.GridImportKW}
	}

	socChart := charts.NewLine()
	socChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "State of charge", Subtitle: s.AssetID}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Slot"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kWh"}),
	)
	socChart.SetXAxis(xAxis).AddSeries("SoC", soc)

	power := charts.NewBar()
	power.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Charge / discharge"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Slot"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kW"}),
	)
	power.SetXAxis(xAxis).
		AddSeries("Charge", charge).
		AddSeries("Discharge", discharge)
	if s.GridImport > 0 {
		imp := charts.NewLine()
		imp.SetXAxis(xAxis).AddSeries("Grid import", imports)
		power.Overlap(imp)
	}

	page := components.NewPage()
	page.AddCharts(socChart, power)
	return page.Render(w)
}

// WriteFleetHTML renders unit outputs against their capacity, largest
// output first.
func WriteFleetHTML(w io.Writer, f model.FleetSchedule) error {
	ranked := f.Ranked()
	xAxis := make([]string, len(ranked))
	out := make([]opts.BarData, len(ranked))
	capacity := make([]opts.BarData, len(ranked))
	for i, u := range ranked {
		xAxis[i] = u.ID
		out[i] = opts.BarData{Value: u.OutputKW}
		capacity[i] = opts.BarData{Value: u.MaxKW}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Fleet dispatch",
			Subtitle: fmt.Sprintf("total %.1f kW, utilization %.1f%%", f.TotalPower, f.CapacityUtilization),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Unit"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kW"}),
	)
	bar.SetXAxis(xAxis).
		AddSeries("Output", out).
		AddSeries("Capacity", capacity)
	return bar.Render(w)
}
