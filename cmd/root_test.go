package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dispatchopt/core/model"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	series := filepath.Join(dir, "series.csv")
	require.NoError(t, os.WriteFile(series, []byte("price\n10\n5\n20\n15\n"), 0o600))
	path := filepath.Join(dir, "config.yaml")
	data := `grid: {slots: 4, step_minutes: 60}
storage: {id: bess, soc_max: 100, initial_soc: 50, max_charge_kw: 50, max_discharge_kw: 50}
forecast: {source: csv, series_csv: "` + series + `"}
fleet:
  units:
    - {id: A, min: 0, max: 10, price: 5}
    - {id: B, min: 0, max: 10, price: 1}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		cfgPath, outFormat, outPath = "", "", ""
		storageRegime, storageMethod = "", ""
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestStorageCommand(t *testing.T) {
	out, err := execute(t, "storage", "--config", writeConfig(t), "--format", "json")
	require.NoError(t, err)
	var s model.StorageSchedule
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.InDelta(t, 1500, s.Revenue, 1e-6)
}

func TestStorageCommand_BadRegime(t *testing.T) {
	_, err := execute(t, "storage", "--config", writeConfig(t), "--regime", "quadratic")
	assert.ErrorContains(t, err, "solver.regime")
}

func TestFleetCommand(t *testing.T) {
	out, err := execute(t, "fleet", "--config", writeConfig(t), "--format", "csv", "--load-weight", "0", "--cost-weight", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "unit,"))
}

func TestBadFormat(t *testing.T) {
	_, err := execute(t, "fleet", "--config", writeConfig(t), "--format", "xml")
	assert.Error(t, err)
}
