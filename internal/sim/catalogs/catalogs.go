package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

type Catalogs struct {
	Resources ResourceCatalog
	Units     UnitCatalog
	Buildings BuildingCatalog
}

type ResourceCatalog struct {
	ByKind map[modelpkg.ResourceKind]ResourceDef
	Digest string
}

// ResourceDef describes one raw resource kind: how it is harvested, stored
// and carried.
type ResourceDef struct {
	Kind        modelpkg.ResourceKind `json:"kind"`
	StorageType modelpkg.StorageType  `json:"storage_type"`

	HarvestTimePerUnit float64 `json:"harvest_time_per_unit"`
	HarvestAmount      int     `json:"harvest_amount"`

	CarrySpeed            modelpkg.SpeedClass `json:"carry_speed"`
	LiftAnimationDuration float64             `json:"lift_animation_duration"`
	DropAnimationDuration float64             `json:"drop_animation_duration"`
	DropPickupRadius      float64             `json:"drop_pickup_radius"`

	HarvestAnimation string `json:"harvest_animation"`
	CarryAnimation   string `json:"carry_animation"`
	ToolApproach     string `json:"tool_approach,omitempty"`
	ToolHarvesting   string `json:"tool_harvesting,omitempty"`
	CarriedModel     string `json:"carried_model,omitempty"`
}

type UnitCatalog struct {
	ByID   map[string]UnitDef
	Digest string
}

type SpeedMultipliers struct {
	Walk       float64 `json:"walk"`
	Sprint     float64 `json:"sprint"`
	CarryLight float64 `json:"carry_light"`
	CarryHeavy float64 `json:"carry_heavy"`
}

type UnitDef struct {
	ID                     string           `json:"id"`
	MaxHealth              float64          `json:"max_health"`
	MoveSpeed              float64          `json:"move_speed"`
	StoppingDistance       float64          `json:"stopping_distance"`
	Speeds                 SpeedMultipliers `json:"speeds"`
	DeathAnimationDuration float64          `json:"death_animation_duration"`

	Worker  *WorkerDef `json:"worker,omitempty"`
	Fighter bool       `json:"fighter,omitempty"`
}

type WorkerDef struct {
	CarryCapacity          int     `json:"carry_capacity"`
	HarvestSpeedMultiplier float64 `json:"harvest_speed_multiplier"`
	ResourceSearchDistance float64 `json:"resource_search_distance"`
}

type BuildingCatalog struct {
	ByID   map[string]BuildingDef
	Digest string
}

type BuildingDef struct {
	ID               string  `json:"id"`
	ConstructionTime float64 `json:"construction_time"`
	MaxHitPoints     float64 `json:"max_hit_points"`
	ApproachRadius   float64 `json:"approach_radius"`
	ToolConstruction string  `json:"tool_construction,omitempty"`

	Camp *CampDef `json:"camp,omitempty"`
}

// CampDef marks a building that registers a resource camp once finished.
type CampDef struct {
	Accepts      modelpkg.StorageType `json:"accepts"`
	AccessOffset [2]float64           `json:"access_offset"`
	AccessRadius float64              `json:"access_radius"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadResources(filepath.Join(configDir, "resources.json"), &c.Resources); err != nil {
		return nil, err
	}
	if err := loadUnits(filepath.Join(configDir, "units.json"), &c.Units); err != nil {
		return nil, err
	}
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalogs) Resource(kind modelpkg.ResourceKind) (ResourceDef, bool) {
	if c == nil {
		return ResourceDef{}, false
	}
	d, ok := c.Resources.ByKind[kind]
	return d, ok
}

func (c *Catalogs) Unit(id string) (UnitDef, bool) {
	if c == nil {
		return UnitDef{}, false
	}
	d, ok := c.Units.ByID[id]
	return d, ok
}

func (c *Catalogs) Building(id string) (BuildingDef, bool) {
	if c == nil {
		return BuildingDef{}, false
	}
	d, ok := c.Buildings.ByID[id]
	return d, ok
}

// Digests returns every catalog digest keyed by file name.
func (c *Catalogs) Digests() map[string]string {
	return map[string]string{
		"resources": c.Resources.Digest,
		"units":     c.Units.Digest,
		"buildings": c.Buildings.Digest,
	}
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadResources(path string, out *ResourceCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ResourceDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("resources.json: %w", err)
	}
	out.ByKind = map[modelpkg.ResourceKind]ResourceDef{}
	for _, d := range defs {
		if d.Kind == modelpkg.KindNone {
			return fmt.Errorf("resources.json: empty kind")
		}
		if d.StorageType == "" || d.StorageType == modelpkg.StorageAny {
			return fmt.Errorf("resources.json: %s: storage_type must name a concrete type", d.Kind)
		}
		if d.HarvestAmount <= 0 {
			return fmt.Errorf("resources.json: %s: harvest_amount must be positive", d.Kind)
		}
		if d.CarrySpeed == "" {
			d.CarrySpeed = modelpkg.SpeedCarryLight
		}
		if d.DropPickupRadius <= 0 {
			d.DropPickupRadius = 1
		}
		out.ByKind[d.Kind] = d
	}
	return nil
}

func loadUnits(path string, out *UnitCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []UnitDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("units.json: %w", err)
	}
	out.ByID = map[string]UnitDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("units.json: empty id")
		}
		if d.MoveSpeed <= 0 {
			return fmt.Errorf("units.json: %s: move_speed must be positive", d.ID)
		}
		if d.Worker != nil && d.Worker.CarryCapacity <= 0 {
			return fmt.Errorf("units.json: %s: carry_capacity must be positive", d.ID)
		}
		out.ByID[d.ID] = d
	}
	return nil
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []BuildingDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.ByID = map[string]BuildingDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("buildings.json: empty id")
		}
		if d.ConstructionTime <= 0 {
			return fmt.Errorf("buildings.json: %s: construction_time must be positive", d.ID)
		}
		out.ByID[d.ID] = d
	}
	return nil
}

// SortedUnitIDs is used for stable listings.
func (c *Catalogs) SortedUnitIDs() []string {
	ids := make([]string, 0, len(c.Units.ByID))
	for id := range c.Units.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
