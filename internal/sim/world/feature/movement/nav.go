// Package movement is the boundary to locomotion. Chains only issue
// destinations and stops and observe arrival; path planning belongs to the
// Provider.
package movement

import "github.com/paulmach/orb"

// Navigator is one agent's locomotion handle.
type Navigator interface {
	// SetDestination starts moving toward p. It returns false when the mover
	// is disabled.
	SetDestination(p orb.Point) bool
	Destination() orb.Point
	// Stop clears the current path and zeroes velocity.
	Stop()
	Velocity() orb.Point
	RemainingDistance() float64
	StoppingDistance() float64

	Enabled() bool
	SetEnabled(on bool)
	ObstacleEnabled() bool
	SetObstacle(on bool)

	Speed() float64
	SetSpeed(v float64)
}

// Provider owns every agent's Navigator and advances them once per tick.
type Provider interface {
	Attach(agentID string, pos *orb.Point, speed, stoppingDistance float64) Navigator
	Detach(agentID string)
	Get(agentID string) (Navigator, bool)
	Step(dt float64)
}
