package runtime

import (
	"github.com/paulmach/orb"

	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/catalogs"
	"villagecraft.ai/internal/sim/world/feature/presentation"
	workpkg "villagecraft.ai/internal/sim/world/feature/work"
	"villagecraft.ai/internal/sim/world/kernel/arena"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

// harvestEpsilon absorbs float drift when accumulated tick deltas are
// compared against the harvest interval.
const harvestEpsilon = 1e-9

// Collect returns the chain body for a harvest order.
func Collect(env Env, a *modelpkg.Agent, fh arena.Handle) sched.Func {
	return func(p *sched.Proc) error { return CollectResource(env, p, a, fh) }
}

// CollectResource is the gather loop: travel to the field, harvest until
// full, store in the closest compatible camp, then come back to the same
// field or a substitute of the same kind.
func CollectResource(env Env, p *sched.Proc, a *modelpkg.Agent, fh arena.Handle) error {
	w := a.Worker
	reg := env.Registry()
	f, ok := reg.Field(fh)
	if w == nil || !ok {
		return nil
	}
	fieldPos := f.Pos
	if a.Target == modelpkg.TargetAt(fieldPos) {
		return nil
	}
	kind := f.Kind
	def, ok := env.Resource(kind)
	if !ok {
		configError(env, a, "missing resource definition for %s", kind)
		return nil
	}

	captured := a.Target
	if err := CheckIfImmobile(p, a); err != nil {
		return err
	}
	if a.Target != captured {
		return nil
	}

	if w.Carried.Amount > 0 && w.Carried.Kind != kind {
		// Already mid-task: skip the let-down animation.
		animated := a.Mode != modelpkg.ModeWorking
		if err := letDownDropResource(env, p, a, animated); err != nil {
			return err
		}
	}
	w.Carried.Kind = kind

	if a.Target != captured {
		return nil
	}

	if _, ok := reg.Field(fh); !ok {
		nh, ok := findFieldAround(env, a, kind, fieldPos)
		if !ok {
			failDepleted(env, a, kind)
			return nil
		}
		fh = nh
		nf, _ := reg.Field(nh)
		fieldPos = nf.Pos
	}

	if err := goToResource(env, p, a, fh, def); err != nil {
		return err
	}
	t := modelpkg.TargetAt(fieldPos)
	if a.Target != t {
		return nil
	}

	if _, ok := reg.Field(fh); !ok {
		restartAround(env, a, kind, fieldPos)
		return nil
	}

	if err := harvestResource(env, p, a, fh, def); err != nil {
		return err
	}
	if a.Target != t {
		return nil
	}

	if w.Carried.Amount == 0 {
		restartAround(env, a, kind, fieldPos)
		return nil
	}

	if err := StoreResourceInClosestCamp(env, p, a); err != nil {
		return err
	}

	ch, ok := reg.NearestCamp(def.StorageType, a.Pos)
	if !ok {
		return nil
	}
	c, _ := reg.Camp(ch)
	if a.Target != modelpkg.TargetAt(c.AccessPoint) {
		return nil
	}
	if _, ok := reg.Field(fh); ok {
		env.StartChain(a, "collect", Collect(env, a, fh))
		return nil
	}
	restartAround(env, a, kind, fieldPos)
	return nil
}

func goToResource(env Env, p *sched.Proc, a *modelpkg.Agent, fh arena.Handle, def catalogs.ResourceDef) error {
	reg := env.Registry()
	f, ok := reg.Field(fh)
	if !ok {
		return nil
	}
	pos, radius := f.Pos, f.CollectRadius
	if err := MoveToLocation(env, p, a, pos, false); err != nil {
		return err
	}
	w := a.Worker
	w.OnWayToTask = true
	defer func() { w.OnWayToTask = false }()

	if w.Carried.Amount == 0 {
		env.Hooks().ShowTool(a, presentation.SocketApproach, def.ToolApproach)
	}

	t := modelpkg.TargetAt(pos)
	for {
		if _, ok := reg.Field(fh); !ok || a.Target != t || modelpkg.Dist(a.Pos, pos) <= radius {
			return nil
		}
		if err := p.Tick(); err != nil {
			return err
		}
	}
}

func harvestResource(env Env, p *sched.Proc, a *modelpkg.Agent, fh arena.Handle, def catalogs.ResourceDef) error {
	w := a.Worker
	reg := env.Registry()
	f, ok := reg.Field(fh)
	if !ok {
		return nil
	}
	pos, kind := f.Pos, f.Kind
	t := modelpkg.TargetAt(pos)

	StartTask(env, a)
	if w.Carried.Amount == 0 {
		w.Carried.Kind = kind
	}

	h := env.Hooks()
	h.Face(a, pos)
	h.Trigger(a, def.HarvestAnimation)
	h.ShowTool(a, presentation.SocketHarvest, def.ToolHarvesting)

	interval := workpkg.HarvestInterval(def.HarvestTimePerUnit, w.HarvestSpeedMultiplier)
	elapsed := 0.0
	for w.Carried.Amount < w.CarryCapacity && a.Target == t {
		if _, ok := reg.Field(fh); !ok {
			break
		}
		if err := p.Tick(); err != nil {
			return err
		}
		if a.Target != t {
			break
		}
		elapsed += p.Delta()
		if elapsed+harvestEpsilon < interval {
			continue
		}
		elapsed = 0
		draw := workpkg.CapDraw(def.HarvestAmount, w.Carried.Amount, w.CarryCapacity)
		taken, depleted, ok := reg.HarvestField(fh, draw)
		if !ok {
			break
		}
		w.Carried.Amount += taken
		emit(env, a, protocol.EventHarvested, protocol.Event{
			"kind":     string(kind),
			"amount":   taken,
			"carried":  w.Carried.Amount,
			"depleted": depleted,
		})
	}

	h.ShowTool(a, presentation.SocketHarvest, "")

	if w.Carried.Amount > 0 && w.Carried.Kind == kind {
		return LiftResource(env, p, a, false)
	}
	return StopTask(env, p, a)
}

// findFieldAround looks for a field of the same raw kind within the worker's
// search radius of where the old one was.
func findFieldAround(env Env, a *modelpkg.Agent, kind modelpkg.ResourceKind, around orb.Point) (arena.Handle, bool) {
	return env.Registry().NearestFieldWithin(kind, around, a.Worker.ResourceSearchDistance)
}

// restartAround starts a fresh harvest chain on a substitute field, or ends
// the order when none is in range.
func restartAround(env Env, a *modelpkg.Agent, kind modelpkg.ResourceKind, around orb.Point) {
	nh, ok := findFieldAround(env, a, kind, around)
	if !ok {
		failDepleted(env, a, kind)
		return
	}
	env.StartChain(a, "collect", Collect(env, a, nh))
}

func failDepleted(env Env, a *modelpkg.Agent, kind modelpkg.ResourceKind) {
	endOrder(env, a, a.Target)
	emit(env, a, protocol.EventTaskFail, protocol.Event{
		"kind":    "HARVEST",
		"code":    protocol.ErrInvalidTarget,
		"message": "no " + string(kind) + " field left in range",
	})
}
