package runtime

import (
	"github.com/paulmach/orb"

	"villagecraft.ai/internal/protocol"
	rtpkg "villagecraft.ai/internal/sim/world/feature/movement/runtime"
	"villagecraft.ai/internal/sim/world/feature/presentation"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

// IdleSlack is added to the stopping distance when deciding an agent has
// come to rest at its destination.
const IdleSlack = 0.1

// MoveToLocation issues a travel order. Re-issuing the live target is a no-op.
func MoveToLocation(env Env, p *sched.Proc, a *modelpkg.Agent, dest orb.Point, attackMove bool) error {
	t := modelpkg.TargetAt(dest)
	if a.Target == t || a.Dead() {
		return nil
	}
	a.Target = t

	if a.Fighter != nil {
		if attackMove {
			a.Fighter.AttackMove = true
		} else {
			a.Fighter.StopAttackMove()
		}
	}

	n := env.Navigator(a)
	if n == nil {
		return nil
	}
	if a.Worker != nil && (a.Mode == modelpkg.ModeWorking || !n.Enabled()) {
		if err := StopTask(env, p, a); err != nil {
			return err
		}
	}

	if err := CheckIfImmobile(p, a); err != nil {
		return err
	}

	if !n.Enabled() || a.Dead() {
		return nil
	}
	if a.Target != t && !a.Fighter.HasAttackTarget() {
		return nil
	}

	n.SetDestination(dest)
	a.Mode = modelpkg.ModeMoving
	return nil
}

// CheckIfImmobile always yields once, then keeps yielding while the agent is
// locked in an animation.
func CheckIfImmobile(p *sched.Proc, a *modelpkg.Agent) error {
	if err := p.Tick(); err != nil {
		return err
	}
	for a.Immobile {
		if err := p.Tick(); err != nil {
			return err
		}
	}
	return nil
}

func StopNav(env Env, a *modelpkg.Agent) {
	if n := env.Navigator(a); n != nil && n.Enabled() {
		n.Stop()
	}
}

func SetImmobile(env Env, a *modelpkg.Agent, on bool) {
	StopNav(env, a)
	a.Immobile = on
}

// NavAgentToNavObstacle turns the mover off before the obstacle comes on.
func NavAgentToNavObstacle(env Env, a *modelpkg.Agent) {
	n := env.Navigator(a)
	if n == nil || n.ObstacleEnabled() {
		return
	}
	n.SetEnabled(false)
	n.SetObstacle(true)
}

// NavObstacleToNavAgent turns the obstacle off, waits one tick, then enables
// the mover. The two representations are never active together.
func NavObstacleToNavAgent(env Env, p *sched.Proc, a *modelpkg.Agent) error {
	n := env.Navigator(a)
	if n == nil || !n.ObstacleEnabled() {
		return nil
	}
	n.SetObstacle(false)
	if err := p.Tick(); err != nil {
		return err
	}
	n.SetEnabled(true)
	return nil
}

// CheckIfIdle runs once per tick per agent, outside any chain. A moving agent
// that is not walking to a task and has come to rest at its destination stops
// and drops its target.
func CheckIfIdle(env Env, a *modelpkg.Agent) bool {
	if a.Mode != modelpkg.ModeMoving {
		return false
	}
	n := env.Navigator(a)
	if n == nil || !n.Enabled() || a.Busy() || a.Fighter.HasAttackTarget() {
		return false
	}
	if !rtpkg.IdleReached(a.Pos, n.Destination(), n.StoppingDistance(), IdleSlack) {
		return false
	}
	StopNav(env, a)
	a.Mode = modelpkg.ModeIdle
	a.Target = modelpkg.NoTarget
	return true
}

// StopAction clears the order, unloads anything carried and halts movement.
func StopAction(env Env, p *sched.Proc, a *modelpkg.Agent) error {
	a.Target = modelpkg.NoTarget
	if a.Worker != nil {
		if err := StopWorkAction(env, p, a); err != nil {
			return err
		}
	}
	a.Fighter.StopAttackAction()
	StopNav(env, a)
	return nil
}

// Die marks the agent dead and removes it once the death animation has
// played. Clearing the target makes every other chain of the agent stop at
// its next suspension point.
func Die(env Env, p *sched.Proc, a *modelpkg.Agent, animationDuration float64) error {
	if a.Dead() {
		return nil
	}
	a.Mode = modelpkg.ModeDead
	a.Target = modelpkg.NoTarget
	StopNav(env, a)

	h := env.Hooks()
	h.SetFlag(a, presentation.FlagDead, true)
	h.Trigger(a, presentation.TriggerDeath)
	emit(env, a, protocol.EventDied, nil)

	if err := p.Sleep(animationDuration); err != nil {
		return err
	}
	env.Despawn(a)
	return nil
}
