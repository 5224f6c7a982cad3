package runtime

import (
	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/world/kernel/arena"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

// Store returns the chain body for an explicit store order.
func Store(env Env, a *modelpkg.Agent, ch arena.Handle, backToResource bool) sched.Func {
	return func(p *sched.Proc) error { return StoreResource(env, p, a, ch, backToResource) }
}

// StoreResource walks to a camp and deposits the load. An incompatible camp
// re-routes to the closest one that accepts the carried type.
func StoreResource(env Env, p *sched.Proc, a *modelpkg.Agent, ch arena.Handle, backToResource bool) error {
	w := a.Worker
	reg := env.Registry()
	c, ok := reg.Camp(ch)
	if w == nil || !ok {
		return nil
	}
	access := c.AccessPoint
	t := modelpkg.TargetAt(access)
	if a.Target == t {
		return nil
	}

	if err := MoveToLocation(env, p, a, access, false); err != nil {
		return err
	}
	if err := goToCamp(env, p, a, ch); err != nil {
		return err
	}
	if a.Target != t {
		return nil
	}

	c, ok = reg.Camp(ch)
	if !ok {
		if w.Carried.Amount > 0 {
			return StoreResourceInClosestCamp(env, p, a)
		}
		return nil
	}
	env.Hooks().Face(a, c.Pos)

	if w.Carried.Amount == 0 {
		return nil
	}
	def, ok := carriedDef(env, a)
	if !ok {
		return nil
	}
	if !c.Accepts.Accepts(def.StorageType) {
		return StoreResourceInClosestCamp(env, p, a)
	}

	NavAgentToNavObstacle(env, a)
	if err := letDownResource(env, p, a, true); err != nil {
		return err
	}

	kind := w.Carried.Kind
	c, ok = reg.Camp(ch)
	switch {
	case !ok || !c.Accepts.Accepts(def.StorageType):
		// The camp changed under the animation; leave the load on the ground.
		dropResource(env, a)
	case a.Target != t:
		// Order replaced during the animation: keep the load.
	default:
		amount := w.Carried.Amount
		c.Deposit(def.StorageType, amount)
		w.Carried = modelpkg.CarriedResource{}
		emit(env, a, protocol.EventResourceStored, protocol.Event{
			"camp":   ch.String(),
			"type":   string(def.StorageType),
			"amount": amount,
		})
	}

	if a.Target != t {
		return nil
	}
	if err := StopTask(env, p, a); err != nil {
		return err
	}
	if backToResource {
		if fh, ok := reg.NearestField(kind, a.Pos); ok {
			env.StartChain(a, "collect", Collect(env, a, fh))
		}
	}
	return nil
}

func goToCamp(env Env, p *sched.Proc, a *modelpkg.Agent, ch arena.Handle) error {
	w := a.Worker
	reg := env.Registry()
	w.OnWayToTask = true
	defer func() { w.OnWayToTask = false }()

	var storage modelpkg.StorageType
	if def, ok := env.Resource(w.Carried.Kind); ok {
		storage = def.StorageType
	}
	for {
		c, ok := reg.Camp(ch)
		if !ok {
			return nil
		}
		t := modelpkg.TargetAt(c.AccessPoint)
		if a.Target != t || modelpkg.Dist(a.Pos, c.AccessPoint) <= c.AccessRadius {
			return nil
		}
		if w.Carried.Amount > 0 && storage != "" && !c.Accepts.Accepts(storage) {
			return nil
		}
		if err := p.Tick(); err != nil {
			return err
		}
	}
}

// StoreResourceInClosestCamp stores the load in the nearest camp accepting
// its type, or stops the task when there is none.
func StoreResourceInClosestCamp(env Env, p *sched.Proc, a *modelpkg.Agent) error {
	if a.Worker == nil {
		return nil
	}
	t := a.Target
	def, ok := carriedDef(env, a)
	if !ok {
		if err := StopTask(env, p, a); err != nil {
			return err
		}
		endOrder(env, a, t)
		return nil
	}
	ch, ok := env.Registry().NearestCamp(def.StorageType, a.Pos)
	if !ok {
		if err := StopTask(env, p, a); err != nil {
			return err
		}
		endOrder(env, a, t)
		env.Logf("agent %s: no camp accepts %s", a.ID, def.StorageType)
		emit(env, a, protocol.EventTaskFail, protocol.Event{
			"kind":    "STORE",
			"code":    protocol.ErrNoResource,
			"message": "no camp accepts " + string(def.StorageType),
		})
		return nil
	}
	return StoreResource(env, p, a, ch, false)
}
