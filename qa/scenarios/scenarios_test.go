package scenarios

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenarios found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte(":"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("expected unmarshal error")
	}
	kind := filepath.Join(dir, "kind.yaml")
	if err := os.WriteFile(kind, []byte("name: x\nkind: wind\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(kind); err == nil {
		t.Fatal("expected unknown kind error")
	}
}

func TestFleetProblemDefaults(t *testing.T) {
	sc := &Scenario{Kind: "fleet"}
	p := sc.FleetProblem()
	if len(p.Units) != 20 {
		t.Fatalf("expected the 20 built-in plants, got %d", len(p.Units))
	}
	if p.Weights.Load != 0.7 || p.Weights.Cost != 0.3 {
		t.Fatalf("unexpected default weights %+v", p.Weights)
	}
}
