package world

import (
	"villagecraft.ai/internal/sim/catalogs"
	"villagecraft.ai/internal/sim/world/feature/entities/registry"
	"villagecraft.ai/internal/sim/world/feature/movement"
	"villagecraft.ai/internal/sim/world/feature/presentation"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

// worldEnv is the runtime.Env the work chains see.
type worldEnv struct{ w *World }

func (e *worldEnv) Registry() *registry.Registry { return e.w.reg }

func (e *worldEnv) Navigator(a *modelpkg.Agent) movement.Navigator {
	n, ok := e.w.nav.Get(a.ID)
	if !ok {
		return nil
	}
	return n
}

func (e *worldEnv) Hooks() presentation.Hooks { return e.w.hooks }

func (e *worldEnv) Resource(kind modelpkg.ResourceKind) (catalogs.ResourceDef, bool) {
	return e.w.catalogs.Resource(kind)
}

func (e *worldEnv) Building(id string) (catalogs.BuildingDef, bool) {
	return e.w.catalogs.Building(id)
}

func (e *worldEnv) Unit(a *modelpkg.Agent) (catalogs.UnitDef, bool) {
	return e.w.catalogs.Unit(a.UnitType)
}

func (e *worldEnv) ConstructionDelay() float64 { return e.w.cfg.ConstructionDelay }

func (e *worldEnv) StartChain(a *modelpkg.Agent, name string, fn sched.Func) {
	e.w.sched.Start(a.ID, name, fn)
}

func (e *worldEnv) Despawn(a *modelpkg.Agent) {
	e.w.despawn = append(e.w.despawn, a.ID)
}

func (e *worldEnv) NowTick() uint64 { return e.w.sched.Tick() }

func (e *worldEnv) Logf(format string, args ...any) { e.w.log.Printf(format, args...) }
