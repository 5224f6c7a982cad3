// Package runtime holds the worker chains. Every chain runs on a sched.Proc
// and follows the same discipline: capture the agent's target before a
// suspension point, compare it after resuming, and stop without further side
// effects on mismatch. Registry handles are re-resolved after every
// suspension.
package runtime

import (
	"errors"
	"fmt"

	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/catalogs"
	"villagecraft.ai/internal/sim/world/feature/entities/registry"
	"villagecraft.ai/internal/sim/world/feature/movement"
	"villagecraft.ai/internal/sim/world/feature/presentation"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

// errAborted ends an operation after a configuration error has been logged.
var errAborted = errors.New("operation aborted")

type Env interface {
	Registry() *registry.Registry
	Navigator(a *modelpkg.Agent) movement.Navigator
	Hooks() presentation.Hooks

	Resource(kind modelpkg.ResourceKind) (catalogs.ResourceDef, bool)
	Building(id string) (catalogs.BuildingDef, bool)
	Unit(a *modelpkg.Agent) (catalogs.UnitDef, bool)

	// ConstructionDelay is the pause between arriving at a site and the
	// first construction tick.
	ConstructionDelay() float64

	// StartChain starts a new top-level chain for the agent. It runs
	// synchronously up to its first suspension point.
	StartChain(a *modelpkg.Agent, name string, fn sched.Func)
	// Despawn removes the agent at the end of the current tick.
	Despawn(a *modelpkg.Agent)

	NowTick() uint64
	Logf(format string, args ...any)
}

func emit(env Env, a *modelpkg.Agent, typ string, fields protocol.Event) {
	e := protocol.Event{"t": env.NowTick(), "type": typ}
	for k, v := range fields {
		e[k] = v
	}
	a.AddEvent(e)
}

func configError(env Env, a *modelpkg.Agent, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	env.Logf("agent %s: config: %s", a.ID, msg)
	emit(env, a, protocol.EventTaskFail, protocol.Event{"code": protocol.ErrInternal, "message": msg})
}

// carriedDef resolves the definition of whatever the worker carries.
func carriedDef(env Env, a *modelpkg.Agent) (catalogs.ResourceDef, bool) {
	if a.Worker == nil {
		return catalogs.ResourceDef{}, false
	}
	return kindDef(env, a, a.Worker.Carried.Kind)
}

func kindDef(env Env, a *modelpkg.Agent, kind modelpkg.ResourceKind) (catalogs.ResourceDef, bool) {
	if kind == modelpkg.KindNone {
		return catalogs.ResourceDef{}, false
	}
	def, ok := env.Resource(kind)
	if !ok {
		configError(env, a, "missing resource definition for %s", kind)
	}
	return def, ok
}

func changeSpeed(env Env, a *modelpkg.Agent, class modelpkg.SpeedClass) {
	a.Speed = class
	u, ok := env.Unit(a)
	if !ok {
		configError(env, a, "missing unit definition for %s", a.UnitType)
		return
	}
	if n := env.Navigator(a); n != nil {
		n.SetSpeed(movement.SpeedFor(u.MoveSpeed, class, movement.SpeedMultipliers(u.Speeds)))
	}
}
