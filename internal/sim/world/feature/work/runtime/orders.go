package runtime

import (
	"github.com/paulmach/orb"

	"villagecraft.ai/internal/sim/world/kernel/arena"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

// Chain bodies for the order kinds that are not covered next to their chains.

func Move(env Env, a *modelpkg.Agent, dest orb.Point, attackMove bool) sched.Func {
	return func(p *sched.Proc) error { return MoveToLocation(env, p, a, dest, attackMove) }
}

func StoreClosest(env Env, a *modelpkg.Agent) sched.Func {
	return func(p *sched.Proc) error { return StoreResourceInClosestCamp(env, p, a) }
}

func PickUp(env Env, a *modelpkg.Agent, dh arena.Handle) sched.Func {
	return func(p *sched.Proc) error { return PickUpResource(env, p, a, dh) }
}

func DropAction(env Env, a *modelpkg.Agent) sched.Func {
	return func(p *sched.Proc) error { return DropResourceAction(env, p, a) }
}

func Lift(env Env, a *modelpkg.Agent, instant bool) sched.Func {
	return func(p *sched.Proc) error { return LiftResource(env, p, a, instant) }
}

func Stop(env Env, a *modelpkg.Agent) sched.Func {
	return func(p *sched.Proc) error { return StopAction(env, p, a) }
}

func Death(env Env, a *modelpkg.Agent, animationDuration float64) sched.Func {
	return func(p *sched.Proc) error { return Die(env, p, a, animationDuration) }
}
