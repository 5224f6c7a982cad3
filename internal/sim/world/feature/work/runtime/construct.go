package runtime

import (
	"errors"

	"github.com/paulmach/orb"

	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/world/feature/presentation"
	workpkg "villagecraft.ai/internal/sim/world/feature/work"
	"villagecraft.ai/internal/sim/world/kernel/arena"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

// Construct returns the chain body for a construction order.
func Construct(env Env, a *modelpkg.Agent, sh arena.Handle) sched.Func {
	return func(p *sched.Proc) error { return StartConstruction(env, p, a, sh) }
}

func StartConstruction(env Env, p *sched.Proc, a *modelpkg.Agent, sh arena.Handle) error {
	reg := env.Registry()
	s, ok := reg.Site(sh)
	if a.Worker == nil || !ok {
		return nil
	}
	pos := s.Pos
	t := modelpkg.TargetAt(pos)
	if a.Target == t {
		return nil
	}

	if err := CheckIfImmobile(p, a); err != nil {
		return err
	}
	if err := goToConstructionSite(env, p, a, sh); err != nil {
		if errors.Is(err, errAborted) {
			return nil
		}
		return err
	}
	if _, ok := reg.Site(sh); !ok || a.Target != t {
		return nil
	}
	return constructBuilding(env, p, a, sh, pos)
}

func goToConstructionSite(env Env, p *sched.Proc, a *modelpkg.Agent, sh arena.Handle) error {
	reg := env.Registry()
	s, ok := reg.Site(sh)
	if !ok {
		return nil
	}
	pos, radius, typ := s.Pos, s.ApproachRadius, s.BuildingType
	if err := MoveToLocation(env, p, a, pos, false); err != nil {
		return err
	}
	w := a.Worker
	w.OnWayToTask = true
	defer func() { w.OnWayToTask = false }()

	if w.Carried.Amount == 0 {
		def, ok := env.Building(typ)
		if !ok {
			configError(env, a, "missing building definition for %s", typ)
			return errAborted
		}
		env.Hooks().ShowTool(a, presentation.SocketConstruction, def.ToolConstruction)
	}

	t := modelpkg.TargetAt(pos)
	for {
		if _, ok := reg.Site(sh); !ok || a.Target != t || modelpkg.Dist(a.Pos, pos) <= radius {
			return nil
		}
		if err := p.Tick(); err != nil {
			return err
		}
	}
}

func constructBuilding(env Env, p *sched.Proc, a *modelpkg.Agent, sh arena.Handle, pos orb.Point) error {
	reg := env.Registry()
	t := modelpkg.TargetAt(pos)

	if a.Worker.Carried.Amount > 0 {
		if err := letDownDropResource(env, p, a, true); err != nil {
			return err
		}
	}

	StartTask(env, a)
	h := env.Hooks()
	h.Face(a, pos)
	h.Trigger(a, presentation.TriggerHammering)
	if err := p.Sleep(env.ConstructionDelay()); err != nil {
		return err
	}

	s, ok := reg.Site(sh)
	if !ok {
		// Finished or destroyed during the transition.
		if a.Target == t {
			return StopTask(env, p, a)
		}
		return nil
	}
	def, ok := env.Building(s.BuildingType)
	if !ok {
		configError(env, a, "missing building definition for %s", s.BuildingType)
		if a.Target == t {
			return StopTask(env, p, a)
		}
		return nil
	}
	h.ShowTool(a, presentation.SocketConstruction, def.ToolConstruction)

	for a.Target == t {
		s, ok := reg.Site(sh)
		if !ok || s.BuiltPercentage() >= 100 {
			break
		}
		if err := p.Tick(); err != nil {
			return err
		}
		s, ok = reg.Site(sh)
		if !ok || a.Target != t {
			break
		}
		dt := p.Delta()
		_, repair := workpkg.ConstructionStep(dt, s.ConstructionTime, s.MaxHitPoints)
		s.Construct(dt)
		s.Repair(repair)
		if s.BuiltPercentage() >= 100 {
			completeSite(env, a, sh)
			break
		}
	}

	if a.Target == t {
		return StopTask(env, p, a)
	}
	return nil
}

// completeSite turns a finished site into a building. Camp buildings register
// a camp at their access point.
func completeSite(env Env, a *modelpkg.Agent, sh arena.Handle) {
	reg := env.Registry()
	s, ok := reg.Site(sh)
	if !ok {
		return
	}
	typ, pos := s.BuildingType, s.Pos

	var camp *modelpkg.Camp
	if def, ok := env.Building(typ); ok && def.Camp != nil {
		camp = &modelpkg.Camp{
			Accepts:      def.Camp.Accepts,
			AccessPoint:  orb.Point{pos[0] + def.Camp.AccessOffset[0], pos[1] + def.Camp.AccessOffset[1]},
			AccessRadius: def.Camp.AccessRadius,
		}
	}
	bh, err := reg.CompleteSite(sh, camp)
	if err != nil {
		env.Logf("agent %s: complete site %s: %v", a.ID, typ, err)
		return
	}
	emit(env, a, protocol.EventTaskDone, protocol.Event{
		"kind":     "CONSTRUCT",
		"building": typ,
		"handle":   bh.String(),
	})
}
