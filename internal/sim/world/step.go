package world

import (
	"encoding/json"
	"math"
	"time"

	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/tasks"
	"villagecraft.ai/internal/sim/world/feature/presentation"
	"villagecraft.ai/internal/sim/world/feature/work/runtime"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

// StepOnce advances the world by a single tick using the same ordering
// semantics as the server loop. It is intended for replays and tests.
func (w *World) StepOnce(orders []tasks.Order) (tick uint64, digest string) {
	tick = w.tick.Load()
	digest = w.stepInternal(orders)
	return tick, digest
}

func (w *World) stepInternal(orders []tasks.Order) string {
	stepStart := time.Now()
	nowTick := w.sched.Tick()

	// Orders apply in inbox order; each starts its chain synchronously so
	// the token is already overwritten when older chains resume below.
	recorded := make([]RecordedOrder, 0, len(orders))
	for _, o := range orders {
		o.SubmittedTick = nowTick
		a := w.agents[o.AgentID]
		oe := w.applyOrder(o)
		w.recordResult(a, o, oe)
		ro := RecordedOrder{
			OrderID:        o.OrderID,
			AgentID:        o.AgentID,
			Kind:           o.Kind,
			Target:         o.Target,
			BackToResource: o.BackToResource,
			Accepted:       oe == nil,
		}
		if oe != nil {
			ro.Code = oe.code
		}
		recorded = append(recorded, ro)
	}

	w.nav.Step(w.sched.Delta())
	for _, id := range w.agentIDs {
		a := w.agents[id]
		runtime.CheckIfIdle(w.env, a)
		w.updateMovingFlag(a)
	}

	w.sched.Step()

	despawned := w.applyDespawns(nowTick)

	w.sendFrames(nowTick)

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil && !(w.cfg.SkipIdleTicks && len(recorded) == 0 && len(despawned) == 0) {
		if err := w.tickLogger.WriteTick(TickLogEntry{
			Tick:      nowTick,
			RunID:     w.runID,
			Orders:    recorded,
			Despawned: despawned,
			Digest:    digest,
		}); err != nil {
			w.log.Printf("tick log %d: %v", nowTick, err)
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)
	w.storeMetrics(nextTick, stepMS)
	return digest
}

// updateMovingFlag raises isMoving while the navigator is faster than the
// moving threshold. The hook only fires on a change.
func (w *World) updateMovingFlag(a *modelpkg.Agent) {
	n, ok := w.nav.Get(a.ID)
	if !ok {
		return
	}
	v := n.Velocity()
	moving := math.Hypot(v.X(), v.Y()) > w.cfg.MovingVelocity
	if moving == w.moving[a.ID] {
		return
	}
	w.moving[a.ID] = moving
	w.hooks.SetFlag(a, presentation.FlagMoving, moving)
}

func (w *World) applyDespawns(nowTick uint64) []string {
	if len(w.despawn) == 0 {
		return nil
	}
	out := make([]string, 0, len(w.despawn))
	for _, id := range w.despawn {
		a, ok := w.agents[id]
		if !ok {
			continue
		}
		w.sched.HaltOwner(id)
		w.nav.Detach(id)
		if cl := w.clients[id]; cl != nil {
			// Last frame for the session, carrying the DEAD mode.
			w.sendFrame(cl, a, nowTick)
			delete(w.clients, id)
		}
		delete(w.agents, id)
		delete(w.moving, id)
		w.removeAgentID(id)
		out = append(out, id)
	}
	w.despawn = w.despawn[:0]
	return out
}

func (w *World) sendFrames(nowTick uint64) {
	for _, id := range w.agentIDs {
		a := w.agents[id]
		cl := w.clients[id]
		if cl == nil {
			a.TakeEvents()
			continue
		}
		w.sendFrame(cl, a, nowTick)
	}
}

func (w *World) sendFrame(cl *clientState, a *modelpkg.Agent, nowTick uint64) {
	events := a.TakeEvents()
	if events == nil {
		events = []protocol.Event{}
	}
	sendJSON(cl.Out, protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Agent:           agentState(a),
		Events:          events,
	})
}

func agentState(a *modelpkg.Agent) protocol.AgentState {
	s := protocol.AgentState{
		ID:       a.ID,
		UnitType: a.UnitType,
		Pos:      [2]float64{a.Pos.X(), a.Pos.Y()},
		Mode:     string(a.Mode),
		Speed:    string(a.Speed),
		Immobile: a.Immobile,
		Busy:     a.Busy(),
		HP:       a.HP,
	}
	if a.Target.Set {
		s.Target = &[2]float64{a.Target.Pos.X(), a.Target.Pos.Y()}
	}
	c := a.Carrying()
	if !c.Empty() {
		s.Carried = protocol.ItemStack{Item: string(c.Kind), Count: c.Amount}
	}
	return s
}

func (w *World) storeMetrics(tick uint64, stepMS float64) {
	chains := 0
	for _, id := range w.agentIDs {
		chains += w.sched.Running(id)
	}
	c := w.reg.Counts()
	w.metrics.Store(WorldMetrics{
		Tick:               tick,
		Agents:             len(w.agents),
		Clients:            len(w.clients),
		Chains:             chains,
		Fields:             c.Fields,
		Camps:              c.Camps,
		Drops:              c.Drops,
		Sites:              c.Sites,
		Buildings:          c.Buildings,
		InboxDepth:         len(w.inbox),
		StepMS:             stepMS,
		OrdersAccepted:     w.ordersAccepted,
		OrdersRejected:     w.ordersRejected,
		ObstacleViolations: w.nav.ObstacleViolations,
	})
}

func sendJSON(ch chan []byte, v any) {
	if ch == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	sendLatest(ch, b)
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
