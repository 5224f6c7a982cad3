package world

import (
	"fmt"

	"github.com/paulmach/orb"

	"villagecraft.ai/internal/sim/world/feature/movement"
	"villagecraft.ai/internal/sim/world/kernel/arena"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

// AgentSpec describes an agent to spawn.
type AgentSpec struct {
	ID       string
	Name     string
	UnitType string
	Pos      orb.Point
	Carried  modelpkg.CarriedResource
}

// SpawnAgent creates an agent from its unit definition and gives it a
// navigator. Must be called on the world goroutine (or before Run).
func (w *World) SpawnAgent(spec AgentSpec) (*modelpkg.Agent, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("spawn: missing agent id")
	}
	if _, ok := w.agents[spec.ID]; ok {
		return nil, fmt.Errorf("spawn %s: agent exists", spec.ID)
	}
	if !w.reg.Bound().Contains(spec.Pos) {
		return nil, fmt.Errorf("spawn %s: position %v out of bounds", spec.ID, spec.Pos)
	}
	u, ok := w.catalogs.Unit(spec.UnitType)
	if !ok {
		return nil, fmt.Errorf("spawn %s: unknown unit type %q", spec.ID, spec.UnitType)
	}

	a := &modelpkg.Agent{
		ID:       spec.ID,
		Name:     spec.Name,
		UnitType: u.ID,
		Pos:      spec.Pos,
		MaxHP:    u.MaxHealth,
	}
	if u.Worker != nil {
		a.Worker = &modelpkg.Worker{
			CarryCapacity:          u.Worker.CarryCapacity,
			HarvestSpeedMultiplier: u.Worker.HarvestSpeedMultiplier,
			ResourceSearchDistance: u.Worker.ResourceSearchDistance,
		}
		c := spec.Carried
		if c.Amount < 0 || c.Amount > a.Worker.CarryCapacity {
			return nil, fmt.Errorf("spawn %s: carried amount %d outside [0,%d]", spec.ID, c.Amount, a.Worker.CarryCapacity)
		}
		if c.Amount > 0 {
			if _, ok := w.catalogs.Resource(c.Kind); !ok {
				return nil, fmt.Errorf("spawn %s: unknown carried kind %q", spec.ID, c.Kind)
			}
		}
		a.Worker.Carried = c
	}
	if u.Fighter {
		a.Fighter = &modelpkg.Fighter{}
	}
	a.InitDefaults()

	speed := movement.SpeedFor(u.MoveSpeed, a.Speed, movement.SpeedMultipliers(u.Speeds))
	w.nav.Attach(a.ID, &a.Pos, speed, u.StoppingDistance)
	w.agents[a.ID] = a
	w.addAgentID(a.ID)
	return a, nil
}

func (w *World) AddField(kind modelpkg.ResourceKind, pos orb.Point, amount int, radius float64) (arena.Handle, error) {
	if _, ok := w.catalogs.Resource(kind); !ok {
		return arena.Handle{}, fmt.Errorf("field: unknown resource kind %q", kind)
	}
	if radius <= 0 {
		radius = w.cfg.Radii.Collect
	}
	return w.reg.AddField(modelpkg.Field{Kind: kind, Pos: pos, Remaining: amount, CollectRadius: radius})
}

// AddCamp registers a camp. A zero access point means the camp position.
func (w *World) AddCamp(accepts modelpkg.StorageType, pos, access orb.Point, radius float64) (arena.Handle, error) {
	if radius <= 0 {
		radius = w.cfg.Radii.Access
	}
	if access == (orb.Point{}) {
		access = pos
	}
	return w.reg.AddCamp(modelpkg.Camp{Accepts: accepts, Pos: pos, AccessPoint: access, AccessRadius: radius})
}

func (w *World) AddDrop(kind modelpkg.ResourceKind, pos orb.Point, amount int) (arena.Handle, error) {
	def, ok := w.catalogs.Resource(kind)
	if !ok {
		return arena.Handle{}, fmt.Errorf("drop: unknown resource kind %q", kind)
	}
	radius := def.DropPickupRadius
	if radius <= 0 {
		radius = w.cfg.Radii.Pickup
	}
	return w.reg.AddDrop(modelpkg.Drop{Kind: kind, Pos: pos, Amount: amount, PickupRadius: radius})
}

// AddSite places a pre-validated, pre-paid construction site. builtPct seeds
// the progress of a partially built site.
func (w *World) AddSite(buildingType string, pos orb.Point, builtPct float64) (arena.Handle, error) {
	def, ok := w.catalogs.Building(buildingType)
	if !ok {
		return arena.Handle{}, fmt.Errorf("site: unknown building %q", buildingType)
	}
	radius := def.ApproachRadius
	if radius <= 0 {
		radius = w.cfg.Radii.Site
	}
	s := modelpkg.Site{
		BuildingType:     def.ID,
		Pos:              pos,
		ApproachRadius:   radius,
		ConstructionTime: def.ConstructionTime,
		MaxHitPoints:     def.MaxHitPoints,
	}
	if builtPct > 0 {
		s.Construct(def.ConstructionTime * builtPct / 100)
		s.Repair(def.MaxHitPoints * builtPct / 100)
	}
	return w.reg.AddSite(s)
}

// Damage applies hit point loss. An agent reaching zero starts its death
// chain.
func (w *World) Damage(agentID string, amount float64) error {
	a, ok := w.agents[agentID]
	if !ok {
		return fmt.Errorf("damage: unknown agent %s", agentID)
	}
	if a.Dead() || amount <= 0 {
		return nil
	}
	a.HP -= amount
	if a.HP > 0 {
		return nil
	}
	a.HP = 0
	w.startDeath(a)
	return nil
}
