package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(p, []byte("tick_rate_hz: 20\nradii:\n  collect: 2.5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.TickRateHz != 20 || tu.Radii.Collect != 2.5 {
		t.Fatalf("overrides not applied: %+v", tu)
	}
	if tu.ConstructionDelay != 0.5 || tu.Radii.Access != 1 {
		t.Fatalf("defaults lost: %+v", tu)
	}
	if tu.Digest() == "" {
		t.Fatalf("expected digest")
	}
	if got := tu.TickSeconds(); got != 0.05 {
		t.Fatalf("TickSeconds = %v", got)
	}
}

func TestLoadRejectsBadBounds(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(p, []byte("bounds: [10, 0, -10, 5]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected bounds error")
	}
}

func TestLoadRepoConfig(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.TickRateHz != 10 {
		t.Fatalf("tick_rate_hz = %d", tu.TickRateHz)
	}
}
