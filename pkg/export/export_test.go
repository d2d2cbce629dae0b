package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dispatchopt/core/model"
)

func sampleStorage() model.StorageSchedule {
	return model.StorageSchedule{
		AssetID:   "bess",
		StepHours: 0.25,
		Slots: []model.SlotDispatch{
			{Slot: 0, ChargeKW: 40, SoC: 70},
			{Slot: 1, DischargeKW: 20.5, SoC: 49.5},
		},
		Revenue:  12.5,
		FinalSoC: 49.5,
	}
}

func TestWriteStorageCSV(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, WriteStorageCSV(&buf, sampleStorage(), start))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"slot", "timeslot", "charge_kw", "discharge_kw", "soc_kwh", "grid_import_kw"}, rows[0])
	assert.Equal(t, []string{"0", "2024-05-01T00:00:00Z", "40", "0", "70", "0"}, rows[1])
	assert.Equal(t, []string{"1", "2024-05-01T00:15:00Z", "0", "20.5", "49.5", "0"}, rows[2])
}

func TestWriteStorageCSV_NoStart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStorageCSV(&buf, sampleStorage(), time.Time{}))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "", rows[1][1])
}

func TestWriteStorageJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStorageJSON(&buf, sampleStorage()))
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "bess", out["asset_id"])
	assert.Equal(t, 12.5, out["revenue"])
	assert.Len(t, out["slots"], 2)
}

func TestWriteFleetCSV_Ranked(t *testing.T) {
	f := model.FleetSchedule{Units: []model.UnitDispatch{
		{ID: "small", OutputKW: 5, MaxKW: 10, Cost: 2, TotalCost: 10, Utilization: 50},
		{ID: "big", OutputKW: 300, MaxKW: 300, Cost: 1, TotalCost: 300, Utilization: 100},
		{ID: "sink", OutputKW: -20, MaxKW: 50, Cost: 3, TotalCost: -60, Utilization: -40},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteFleetCSV(&buf, f))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "big", rows[1][0])
	assert.Equal(t, "small", rows[2][0])
	assert.Equal(t, "sink", rows[3][0])
	assert.Equal(t, "-60", rows[3][4])
}

func TestWriteFleetJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFleetJSON(&buf, model.FleetSchedule{TotalPower: 42}))
	assert.Contains(t, buf.String(), `"total_power": 42`)
}

func TestWriteStorageHTML(t *testing.T) {
	s := model.StorageSchedule{
		AssetID:    "bess",
		StepHours:  1,
		GridImport: 5,
		Slots: []model.SlotDispatch{
			{Slot: 0, ChargeKW: 10, SoC: 60, GridImportKW: 5},
			{Slot: 1, DischargeKW: 10, SoC: 50},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteStorageHTML(&buf, s, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "State of charge")
	assert.Contains(t, html, "2024-01-01 01:00")
	assert.Contains(t, html, "Grid import")
}

func TestWriteFleetHTML(t *testing.T) {
	f := model.FleetSchedule{Units: []model.UnitDispatch{{ID: "P1", OutputKW: 1, MaxKW: 2}, {ID: "P2", OutputKW: 2, MaxKW: 2}}}
	var buf bytes.Buffer
	require.NoError(t, WriteFleetHTML(&buf, f))
	html := buf.String()
	assert.Contains(t, html, "Fleet dispatch")
	assert.Contains(t, html, "P2")
	assert.Contains(t, html, "Capacity")
}
