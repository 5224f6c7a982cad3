package movement

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

func TestLinearMovesAtSpeedAndStops(t *testing.T) {
	l := NewLinear()
	pos := orb.Point{0, 0}
	n := l.Attach("A1", &pos, 2, 0)
	if !n.SetDestination(orb.Point{1, 0}) {
		t.Fatalf("enabled mover should accept destination")
	}
	l.Step(0.1)
	if math.Abs(pos[0]-0.2) > 1e-9 {
		t.Fatalf("pos after one step = %v", pos)
	}
	if math.Abs(n.Velocity()[0]-2) > 1e-9 {
		t.Fatalf("velocity = %v", n.Velocity())
	}
	for i := 0; i < 10; i++ {
		l.Step(0.1)
	}
	if pos != (orb.Point{1, 0}) || n.Velocity() != (orb.Point{}) {
		t.Fatalf("expected arrival at rest, pos=%v vel=%v", pos, n.Velocity())
	}
}

func TestLinearDisabledIgnoresDestination(t *testing.T) {
	l := NewLinear()
	pos := orb.Point{0, 0}
	n := l.Attach("A1", &pos, 1, 0)
	n.SetEnabled(false)
	if n.SetDestination(orb.Point{5, 0}) {
		t.Fatalf("disabled mover must refuse destination")
	}
	l.Step(0.1)
	if pos != (orb.Point{0, 0}) {
		t.Fatalf("disabled mover moved: %v", pos)
	}
}

func TestLinearCountsDoubleRepresentation(t *testing.T) {
	l := NewLinear()
	pos := orb.Point{}
	n := l.Attach("A1", &pos, 1, 0)
	n.SetObstacle(true)
	l.Step(0.1)
	if l.ObstacleViolations != 1 {
		t.Fatalf("violations=%d", l.ObstacleViolations)
	}
	n.SetEnabled(false)
	l.Step(0.1)
	if l.ObstacleViolations != 1 {
		t.Fatalf("obstacle-only must not count, violations=%d", l.ObstacleViolations)
	}
}

func TestSpeedFor(t *testing.T) {
	m := SpeedMultipliers{Walk: 0.5, CarryHeavy: 0.25}
	if got := SpeedFor(4, modelpkg.SpeedWalk, m); got != 2 {
		t.Fatalf("walk=%v", got)
	}
	if got := SpeedFor(4, modelpkg.SpeedCarryHeavy, m); got != 1 {
		t.Fatalf("carry heavy=%v", got)
	}
	if got := SpeedFor(4, modelpkg.SpeedSprint, m); got != 4 {
		t.Fatalf("unset multiplier should default to 1, got %v", got)
	}
}
