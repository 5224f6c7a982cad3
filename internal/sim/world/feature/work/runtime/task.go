package runtime

import (
	"villagecraft.ai/internal/sim/world/feature/presentation"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

// StartTask puts the agent into stationary work: mode Working and an obstacle
// instead of a mover.
func StartTask(env Env, a *modelpkg.Agent) {
	a.Mode = modelpkg.ModeWorking
	env.Hooks().SetFlag(a, presentation.FlagWorking, true)
	NavAgentToNavObstacle(env, a)
}

func StopTask(env Env, p *sched.Proc, a *modelpkg.Agent) error {
	a.Mode = modelpkg.ModeIdle
	env.Hooks().SetFlag(a, presentation.FlagWorking, false)
	return NavObstacleToNavAgent(env, p, a)
}

// endOrder drops order t when a chain gives up on it, unless a newer order
// replaced it meanwhile. A moving agent also comes to rest.
func endOrder(env Env, a *modelpkg.Agent, t modelpkg.Target) {
	if a.Target != t {
		return
	}
	a.Target = modelpkg.NoTarget
	if a.Mode == modelpkg.ModeMoving {
		StopNav(env, a)
		a.Mode = modelpkg.ModeIdle
	}
}

// StopWorkAction unloads the carried resource (instantly when mid-work) and
// returns the agent to a mover.
func StopWorkAction(env Env, p *sched.Proc, a *modelpkg.Agent) error {
	if a.Worker != nil && a.Worker.Carried.Amount > 0 {
		animated := a.Mode != modelpkg.ModeWorking
		if err := letDownDropResource(env, p, a, animated); err != nil {
			return err
		}
	}
	return StopTask(env, p, a)
}

// spawnStopTask runs StopTask alongside the caller, as the lift and let-down
// animations do.
func spawnStopTask(env Env, p *sched.Proc, a *modelpkg.Agent) {
	p.Spawn("stop-task", func(q *sched.Proc) error {
		return StopTask(env, q, a)
	})
}
