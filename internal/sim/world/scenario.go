package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

// Scenario is the initial population of a world: agents plus the resource
// entities they work on.
type Scenario struct {
	Agents []ScenarioAgent `yaml:"agents"`
	Fields []ScenarioField `yaml:"fields"`
	Camps  []ScenarioCamp  `yaml:"camps"`
	Drops  []ScenarioDrop  `yaml:"drops"`
	Sites  []ScenarioSite  `yaml:"sites"`
}

type ScenarioAgent struct {
	ID       string     `yaml:"id"`
	Name     string     `yaml:"name"`
	UnitType string     `yaml:"unit_type"`
	Pos      [2]float64 `yaml:"pos"`
	Carried  struct {
		Kind   string `yaml:"kind"`
		Amount int    `yaml:"amount"`
	} `yaml:"carried"`
}

type ScenarioField struct {
	Kind   string     `yaml:"kind"`
	Pos    [2]float64 `yaml:"pos"`
	Amount int        `yaml:"amount"`
	Radius float64    `yaml:"radius"`
}

type ScenarioCamp struct {
	Accepts string      `yaml:"accepts"`
	Pos     [2]float64  `yaml:"pos"`
	Access  *[2]float64 `yaml:"access"`
	Radius  float64     `yaml:"radius"`
}

type ScenarioDrop struct {
	Kind   string     `yaml:"kind"`
	Pos    [2]float64 `yaml:"pos"`
	Amount int        `yaml:"amount"`
}

type ScenarioSite struct {
	Building string     `yaml:"building"`
	Pos      [2]float64 `yaml:"pos"`
	BuiltPct float64    `yaml:"built_pct"`
}

func LoadScenario(path string) (Scenario, error) {
	var sc Scenario
	raw, err := os.ReadFile(path)
	if err != nil {
		return sc, err
	}
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return sc, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Populate spawns the scenario into an empty world. Must run before Run.
func (w *World) Populate(sc Scenario) error {
	for _, f := range sc.Fields {
		if _, err := w.AddField(modelpkg.ResourceKind(f.Kind), modelpkg.Ground(f.Pos[0], f.Pos[1]), f.Amount, f.Radius); err != nil {
			return err
		}
	}
	for _, c := range sc.Camps {
		pos := modelpkg.Ground(c.Pos[0], c.Pos[1])
		access := pos
		if c.Access != nil {
			access = modelpkg.Ground(c.Access[0], c.Access[1])
		}
		accepts := modelpkg.StorageType(c.Accepts)
		if accepts == "" {
			accepts = modelpkg.StorageAny
		}
		if _, err := w.AddCamp(accepts, pos, access, c.Radius); err != nil {
			return err
		}
	}
	for _, d := range sc.Drops {
		if _, err := w.AddDrop(modelpkg.ResourceKind(d.Kind), modelpkg.Ground(d.Pos[0], d.Pos[1]), d.Amount); err != nil {
			return err
		}
	}
	for _, s := range sc.Sites {
		if _, err := w.AddSite(s.Building, modelpkg.Ground(s.Pos[0], s.Pos[1]), s.BuiltPct); err != nil {
			return err
		}
	}
	for _, a := range sc.Agents {
		spec := AgentSpec{
			ID:       a.ID,
			Name:     a.Name,
			UnitType: a.UnitType,
			Pos:      modelpkg.Ground(a.Pos[0], a.Pos[1]),
			Carried:  modelpkg.CarriedResource{Kind: modelpkg.ResourceKind(a.Carried.Kind), Amount: a.Carried.Amount},
		}
		if _, err := w.SpawnAgent(spec); err != nil {
			return err
		}
	}
	return nil
}
