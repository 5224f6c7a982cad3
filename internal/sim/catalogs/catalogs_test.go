package catalogs

import (
	"os"
	"path/filepath"
	"testing"

	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

func TestLoadShippedCatalogs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wood, ok := c.Resource(modelpkg.KindWood)
	if !ok || wood.StorageType != modelpkg.StorageWood {
		t.Fatalf("wood def missing or wrong storage: %+v", wood)
	}
	berries, _ := c.Resource(modelpkg.KindBerries)
	farm, _ := c.Resource(modelpkg.KindFarm)
	if berries.StorageType != modelpkg.StorageFood || farm.StorageType != modelpkg.StorageFood {
		t.Fatalf("berries and farm both store as food")
	}
	v, ok := c.Unit("villager")
	if !ok || v.Worker == nil || v.Worker.CarryCapacity != 10 {
		t.Fatalf("villager def: %+v", v)
	}
	if m, _ := c.Unit("militia"); m.Worker != nil || !m.Fighter {
		t.Fatalf("militia should be fighter-only: %+v", m)
	}
	camp, ok := c.Building("resource_camp")
	if !ok || camp.Camp == nil || camp.Camp.Accepts != modelpkg.StorageAny {
		t.Fatalf("resource_camp def: %+v", camp)
	}
	for name, d := range c.Digests() {
		if len(d) != 64 {
			t.Fatalf("digest %s=%q", name, d)
		}
	}
}

func TestLoadRejectsAnyStorageForResource(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("resources.json", `[{"kind":"WOOD","storage_type":"ANY","harvest_amount":1}]`)
	write("units.json", `[]`)
	write("buildings.json", `[]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for ANY storage type")
	}
}
