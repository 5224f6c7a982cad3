// Package presentation carries fire-and-forget visual intents out of the
// work chains. Nothing in the simulation waits on them.
package presentation

import (
	"github.com/paulmach/orb"

	"villagecraft.ai/internal/protocol"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

// Flag names.
const (
	FlagMoving  = "isMoving"
	FlagWorking = "working"
	FlagDead    = "isDead"
	FlagInstant = "instant"
)

// Trigger names.
const (
	TriggerHammering = "hammering"
	TriggerDeath     = "death"
)

// Tool sockets.
const (
	SocketApproach     = "approach"
	SocketHarvest      = "harvest"
	SocketCarried      = "carried"
	SocketConstruction = "construction"
)

type Hooks interface {
	SetFlag(a *modelpkg.Agent, name string, on bool)
	Trigger(a *modelpkg.Agent, name string)
	// ShowTool swaps the thing in hand. An empty tool hides it.
	ShowTool(a *modelpkg.Agent, socket string, tool string)
	Face(a *modelpkg.Agent, p orb.Point)
}

type Nop struct{}

func (Nop) SetFlag(*modelpkg.Agent, string, bool)    {}
func (Nop) Trigger(*modelpkg.Agent, string)          {}
func (Nop) ShowTool(*modelpkg.Agent, string, string) {}
func (Nop) Face(a *modelpkg.Agent, p orb.Point)      { a.Facing = p }

// EventHooks records every intent as a PRESENT event on the agent so it
// reaches clients with the next state frame.
type EventHooks struct {
	NowTick func() uint64
}

func (h EventHooks) now() uint64 {
	if h.NowTick == nil {
		return 0
	}
	return h.NowTick()
}

func (h EventHooks) SetFlag(a *modelpkg.Agent, name string, on bool) {
	a.AddEvent(protocol.Event{"t": h.now(), "type": protocol.EventPresent, "intent": "FLAG", "name": name, "on": on})
}

func (h EventHooks) Trigger(a *modelpkg.Agent, name string) {
	if name == "" {
		return
	}
	a.AddEvent(protocol.Event{"t": h.now(), "type": protocol.EventPresent, "intent": "TRIGGER", "name": name})
}

func (h EventHooks) ShowTool(a *modelpkg.Agent, socket string, tool string) {
	a.AddEvent(protocol.Event{"t": h.now(), "type": protocol.EventPresent, "intent": "TOOL", "socket": socket, "tool": tool})
}

func (h EventHooks) Face(a *modelpkg.Agent, p orb.Point) {
	a.Facing = p
	a.AddEvent(protocol.Event{"t": h.now(), "type": protocol.EventPresent, "intent": "FACE", "pos": [2]float64{p[0], p[1]}})
}

// Recorder keeps intents in order. Tests use it to assert ordering.
type Recorder struct {
	Intents []string
}

func (r *Recorder) SetFlag(a *modelpkg.Agent, name string, on bool) {
	v := "off"
	if on {
		v = "on"
	}
	r.Intents = append(r.Intents, a.ID+":flag:"+name+"="+v)
}

func (r *Recorder) Trigger(a *modelpkg.Agent, name string) {
	r.Intents = append(r.Intents, a.ID+":trigger:"+name)
}

func (r *Recorder) ShowTool(a *modelpkg.Agent, socket string, tool string) {
	r.Intents = append(r.Intents, a.ID+":tool:"+socket+"="+tool)
}

func (r *Recorder) Face(a *modelpkg.Agent, p orb.Point) {
	a.Facing = p
}
