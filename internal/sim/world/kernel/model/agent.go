package model

import (
	"github.com/paulmach/orb"

	"villagecraft.ai/internal/protocol"
)

type Mode string

const (
	ModeIdle      Mode = "IDLE"
	ModeMoving    Mode = "MOVING"
	ModeWorking   Mode = "WORKING"
	ModeAttacking Mode = "ATTACKING"
	ModeDead      Mode = "DEAD"
)

type SpeedClass string

const (
	SpeedRun        SpeedClass = "RUN"
	SpeedWalk       SpeedClass = "WALK"
	SpeedSprint     SpeedClass = "SPRINT"
	SpeedCarryLight SpeedClass = "CARRY_LIGHT"
	SpeedCarryHeavy SpeedClass = "CARRY_HEAVY"
)

// Agent is a mobile unit. Worker and Fighter are optional capabilities; a nil
// role means the corresponding branches are skipped.
type Agent struct {
	ID       string
	Name     string
	UnitType string

	Pos    orb.Point
	Facing orb.Point

	// Target is the order token. Overwriting it cancels whatever chain
	// captured the previous value.
	Target Target
	Mode   Mode
	Speed  SpeedClass

	Immobile bool

	HP    float64
	MaxHP float64

	Worker  *Worker
	Fighter *Fighter

	Events []protocol.Event
	// Monotonic count of events recorded on this agent.
	EventCursor uint64
	// Retained event history for cursor-based fetch.
	EventLog []eventLogEntry
}

type Worker struct {
	CarryCapacity          int
	HarvestSpeedMultiplier float64
	ResourceSearchDistance float64

	Carried CarriedResource

	// OnWayToTask is set while walking toward a task target and blocks idle
	// detection.
	OnWayToTask bool
}

type Fighter struct {
	AttackTarget string
	AttackMove   bool
}

// StopAttackMove clears the attack-move flag. An explicit attack target is
// left to the combat layer.
func (f *Fighter) StopAttackMove() {
	if f == nil {
		return
	}
	f.AttackMove = false
}

// StopAttackAction drops both the attack target and attack-move.
func (f *Fighter) StopAttackAction() {
	if f == nil {
		return
	}
	f.AttackTarget = ""
	f.AttackMove = false
}

func (f *Fighter) HasAttackTarget() bool {
	return f != nil && f.AttackTarget != ""
}

type eventLogEntry struct {
	Cursor uint64
	Event  protocol.Event
}

func (a *Agent) InitDefaults() {
	if a.Mode == "" {
		a.Mode = ModeIdle
	}
	if a.Speed == "" {
		a.Speed = SpeedRun
	}
	if a.MaxHP <= 0 {
		a.MaxHP = 100
	}
	if a.HP <= 0 {
		a.HP = a.MaxHP
	}
}

// Busy reports whether the agent is walking toward a task target.
func (a *Agent) Busy() bool {
	return a.Worker != nil && a.Worker.OnWayToTask
}

func (a *Agent) Dead() bool {
	return a.Mode == ModeDead
}

// Carrying returns the carried slot, or the zero value for agents without a
// worker role.
func (a *Agent) Carrying() CarriedResource {
	if a.Worker == nil {
		return CarriedResource{}
	}
	return a.Worker.Carried
}

func (a *Agent) AddEvent(e protocol.Event) {
	a.Events = append(a.Events, e)
	a.EventCursor++
	a.EventLog = append(a.EventLog, eventLogEntry{Cursor: a.EventCursor, Event: e})
	if len(a.EventLog) > 4096 {
		a.EventLog = append([]eventLogEntry(nil), a.EventLog[len(a.EventLog)-4096:]...)
	}
}

func (a *Agent) TakeEvents() []protocol.Event {
	ev := a.Events
	a.Events = nil
	return ev
}

func (a *Agent) EventsAfter(cursor uint64, limit int) ([]protocol.Event, uint64) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	out := make([]protocol.Event, 0, limit)
	next := cursor
	for _, e := range a.EventLog {
		if e.Cursor <= cursor {
			continue
		}
		out = append(out, e.Event)
		next = e.Cursor
		if len(out) >= limit {
			break
		}
	}
	return out, next
}
