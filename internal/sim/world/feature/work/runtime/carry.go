package runtime

import (
	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/world/feature/presentation"
	"villagecraft.ai/internal/sim/world/kernel/arena"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

// LiftResource switches the worker to carrying. The animated lift stops the
// worker for the lift duration; the instant one only skips a tick.
func LiftResource(env Env, p *sched.Proc, a *modelpkg.Agent, instant bool) error {
	if err := CheckIfImmobile(p, a); err != nil {
		return err
	}
	def, ok := carriedDef(env, a)
	if !ok {
		return nil
	}
	h := env.Hooks()

	if !instant {
		StopNav(env, a)
	} else {
		h.SetFlag(a, presentation.FlagInstant, true)
	}
	h.SetFlag(a, def.CarryAnimation, true)
	h.ShowTool(a, presentation.SocketCarried, def.CarriedModel)

	if !instant {
		spawnStopTask(env, p, a)

		SetImmobile(env, a, true)
		err := p.Sleep(def.LiftAnimationDuration)
		SetImmobile(env, a, false)
		if err != nil {
			return err
		}
	} else {
		if err := p.Tick(); err != nil {
			return err
		}
		h.SetFlag(a, presentation.FlagInstant, false)
	}

	changeSpeed(env, a, def.CarrySpeed)
	return nil
}

func letDownResource(env Env, p *sched.Proc, a *modelpkg.Agent, withAnimation bool) error {
	var kind modelpkg.ResourceKind
	if a.Worker != nil {
		kind = a.Worker.Carried.Kind
	}
	return letDown(env, p, a, kind, withAnimation)
}

// letDown plays the let-down for a load of kind, which may already have left
// the worker's hands.
func letDown(env Env, p *sched.Proc, a *modelpkg.Agent, kind modelpkg.ResourceKind, withAnimation bool) error {
	if err := CheckIfImmobile(p, a); err != nil {
		return err
	}
	StopNav(env, a)

	h := env.Hooks()
	def, ok := kindDef(env, a, kind)
	if ok {
		h.SetFlag(a, def.CarryAnimation, false)
	}

	if withAnimation {
		spawnStopTask(env, p, a)

		SetImmobile(env, a, true)
		err := p.Sleep(def.DropAnimationDuration)
		SetImmobile(env, a, false)
		if err != nil {
			return err
		}
	}

	changeSpeed(env, a, modelpkg.SpeedRun)
	h.ShowTool(a, presentation.SocketCarried, "")
	return nil
}

// letDownDropResource puts the load on the ground. Instant mode drops before
// the let-down, animated mode after it.
func letDownDropResource(env Env, p *sched.Proc, a *modelpkg.Agent, withAnimation bool) error {
	var kind modelpkg.ResourceKind
	if a.Worker != nil {
		kind = a.Worker.Carried.Kind
	}
	if !withAnimation {
		dropResource(env, a)
	}
	if err := letDown(env, p, a, kind, withAnimation); err != nil {
		return err
	}
	if withAnimation {
		dropResource(env, a)
	}
	return nil
}

// dropResource creates a pile at the worker's feet and empties its hands. It
// never creates an empty pile.
func dropResource(env Env, a *modelpkg.Agent) {
	w := a.Worker
	if w == nil || w.Carried.Amount <= 0 {
		return
	}
	radius := 1.0
	if def, ok := env.Resource(w.Carried.Kind); ok {
		radius = def.DropPickupRadius
	}
	h, err := env.Registry().AddDrop(modelpkg.Drop{
		Kind:         w.Carried.Kind,
		Pos:          a.Pos,
		Amount:       w.Carried.Amount,
		PickupRadius: radius,
	})
	if err != nil {
		env.Logf("agent %s: drop %d %s: %v", a.ID, w.Carried.Amount, w.Carried.Kind, err)
	} else {
		emit(env, a, protocol.EventResourceDropped, protocol.Event{
			"drop":   h.String(),
			"kind":   string(w.Carried.Kind),
			"amount": w.Carried.Amount,
		})
	}
	w.Carried = modelpkg.CarriedResource{}
}

// DropResourceAction is the explicit drop order.
func DropResourceAction(env Env, p *sched.Proc, a *modelpkg.Agent) error {
	if a.Worker == nil {
		return nil
	}
	return letDownDropResource(env, p, a, true)
}

// PickUpResource walks to a ground pile and takes as much as fits.
func PickUpResource(env Env, p *sched.Proc, a *modelpkg.Agent, dh arena.Handle) error {
	w := a.Worker
	reg := env.Registry()
	d, ok := reg.Drop(dh)
	if w == nil || !ok {
		return nil
	}
	pos, kind, radius := d.Pos, d.Kind, d.PickupRadius
	t := modelpkg.TargetAt(pos)
	if a.Target == t {
		return nil
	}

	if w.Carried.Amount > 0 && w.Carried.Kind != kind {
		animated := a.Mode != modelpkg.ModeWorking
		if err := letDownDropResource(env, p, a, animated); err != nil {
			return err
		}
	}
	w.Carried.Kind = kind

	if _, ok := reg.Drop(dh); !ok {
		return nil
	}
	if err := MoveToLocation(env, p, a, pos, false); err != nil {
		return err
	}

	w.OnWayToTask = true
	for {
		if _, ok := reg.Drop(dh); !ok || a.Target != t || modelpkg.Dist(a.Pos, pos) <= radius {
			break
		}
		if err := p.Tick(); err != nil {
			w.OnWayToTask = false
			return err
		}
	}
	w.OnWayToTask = false

	if _, ok := reg.Drop(dh); !ok || a.Target != t || w.Carried.Amount >= w.CarryCapacity {
		return nil
	}

	if w.Carried.Amount > 0 {
		if err := letDownResource(env, p, a, true); err != nil {
			return err
		}
		if a.Target != t {
			return nil
		}
	}

	if taken, ok := reg.TakeFromDrop(dh, w.CarryCapacity-w.Carried.Amount); ok {
		w.Carried.Amount += taken
		emit(env, a, protocol.EventResourcePicked, protocol.Event{"kind": string(kind), "amount": taken})
	}
	if w.Carried.Amount == 0 {
		return nil
	}
	return LiftResource(env, p, a, false)
}
