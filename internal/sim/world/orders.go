package world

import (
	"fmt"

	"github.com/paulmach/orb"

	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/tasks"
	"villagecraft.ai/internal/sim/world/feature/entities/registry"
	"villagecraft.ai/internal/sim/world/feature/work/runtime"
	"villagecraft.ai/internal/sim/world/kernel/arena"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

type orderError struct {
	code string
	msg  string
}

func (e *orderError) Error() string { return e.code + ": " + e.msg }

func reject(code, format string, args ...any) *orderError {
	return &orderError{code: code, msg: fmt.Sprintf(format, args...)}
}

// applyOrder validates an order against world state and starts its chain.
// The chain runs synchronously up to its first suspension point.
func (w *World) applyOrder(o tasks.Order) *orderError {
	if err := o.Validate(); err != nil {
		return reject(protocol.ErrBadRequest, "%v", err)
	}
	a, ok := w.agents[o.AgentID]
	if !ok {
		return reject(protocol.ErrInvalidTarget, "unknown agent %s", o.AgentID)
	}
	if a.Dead() {
		return reject(protocol.ErrConflict, "agent %s is dead", a.ID)
	}
	p := modelpkg.Ground(o.Target[0], o.Target[1])
	if o.Kind.NeedsPoint() && !w.reg.Bound().Contains(p) {
		return reject(protocol.ErrBadRequest, "target %s out of bounds", modelpkg.TargetAt(p))
	}

	env := w.env
	var (
		name string
		fn   sched.Func
	)
	switch o.Kind {
	case tasks.KindMoveTo:
		name, fn = "move", runtime.Move(env, a, p, false)
	case tasks.KindAttackMove:
		if a.Fighter == nil {
			return reject(protocol.ErrBadRequest, "unit %s cannot attack", a.UnitType)
		}
		name, fn = "attack-move", runtime.Move(env, a, p, true)
	case tasks.KindStop:
		name, fn = "stop", runtime.Stop(env, a)
	default:
		if a.Worker == nil {
			return reject(protocol.ErrBadRequest, "unit %s has no worker role", a.UnitType)
		}
		var err *orderError
		name, fn, err = w.workOrder(a, o, p)
		if err != nil {
			return err
		}
	}
	w.sched.Start(a.ID, name, fn)
	return nil
}

func (w *World) workOrder(a *modelpkg.Agent, o tasks.Order, p orb.Point) (string, sched.Func, *orderError) {
	env := w.env
	switch o.Kind {
	case tasks.KindDrop:
		return "drop", runtime.DropAction(env, a), nil
	case tasks.KindHarvest:
		h, err := w.resolve(registry.EntityField, p)
		if err != nil {
			return "", nil, err
		}
		return "collect", runtime.Collect(env, a, h), nil
	case tasks.KindConstruct:
		h, err := w.resolve(registry.EntitySite, p)
		if err != nil {
			return "", nil, err
		}
		return "construct", runtime.Construct(env, a, h), nil
	case tasks.KindStore:
		h, err := w.resolve(registry.EntityCamp, p)
		if err != nil {
			return "", nil, err
		}
		return "store", runtime.Store(env, a, h, o.BackToResource), nil
	case tasks.KindPickup:
		h, err := w.resolve(registry.EntityDrop, p)
		if err != nil {
			return "", nil, err
		}
		return "pickup", runtime.PickUp(env, a, h), nil
	}
	return "", nil, reject(protocol.ErrBadRequest, "unsupported order kind %s", o.Kind)
}

// resolve maps an order point onto the registry record standing there.
func (w *World) resolve(kind registry.EntityKind, p orb.Point) (arena.Handle, *orderError) {
	ref, ok := w.reg.EntityAt(p)
	if !ok {
		return arena.Handle{}, reject(protocol.ErrInvalidTarget, "nothing at %s", modelpkg.TargetAt(p))
	}
	if ref.Kind != kind {
		return arena.Handle{}, reject(protocol.ErrInvalidTarget, "%s at %s is not a %s", ref.Kind, modelpkg.TargetAt(p), kind)
	}
	return ref.Handle, nil
}

func (w *World) startDeath(a *modelpkg.Agent) {
	d := 0.0
	if u, ok := w.catalogs.Unit(a.UnitType); ok {
		d = u.DeathAnimationDuration
	}
	w.sched.Start(a.ID, "die", runtime.Death(w.env, a, d))
}

func (w *World) recordResult(a *modelpkg.Agent, o tasks.Order, oe *orderError) {
	if oe == nil {
		w.ordersAccepted++
	} else {
		w.ordersRejected++
		if !protocol.IsKnownCode(oe.code) {
			w.log.Printf("order %s: unknown result code %q", o, oe.code)
			oe = &orderError{code: protocol.ErrInternal, msg: oe.msg}
		}
	}
	msg := protocol.ActionResultMsg{
		Type:            protocol.TypeActionResult,
		ProtocolVersion: protocol.Version,
		OrderID:         o.OrderID,
		Accepted:        oe == nil,
		ServerTick:      w.sched.Tick(),
	}
	if oe != nil {
		msg.Code, msg.Message = oe.code, oe.msg
		w.log.Printf("order %s rejected: %s", o, oe)
	}
	if a != nil {
		e := protocol.Event{
			"t":        msg.ServerTick,
			"type":     protocol.EventActionResult,
			"order_id": o.OrderID,
			"kind":     string(o.Kind),
			"accepted": msg.Accepted,
		}
		if oe != nil {
			e["code"] = oe.code
			e["message"] = oe.msg
		}
		a.AddEvent(e)
	}
	if cl := w.clients[o.AgentID]; cl != nil {
		sendJSON(cl.Out, msg)
	}
}
