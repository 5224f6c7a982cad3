package runtime

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestMoveTolerance(t *testing.T) {
	if got := MoveTolerance(0); got != 0.05 {
		t.Fatalf("MoveTolerance(0)=%v", got)
	}
	if got := MoveTolerance(1.2); got != 1.2 {
		t.Fatalf("MoveTolerance(1.2)=%v", got)
	}
}

func TestStepToward(t *testing.T) {
	next, left := StepToward(orb.Point{0, 0}, orb.Point{3, 4}, 1)
	if math.Abs(next[0]-0.6) > 1e-9 || math.Abs(next[1]-0.8) > 1e-9 || math.Abs(left-4) > 1e-9 {
		t.Fatalf("step mismatch: %v left=%v", next, left)
	}
	next, left = StepToward(orb.Point{0, 0}, orb.Point{0.5, 0}, 1)
	if next != (orb.Point{0.5, 0}) || left != 0 {
		t.Fatalf("overshoot must snap to destination: %v left=%v", next, left)
	}
}

func TestArrivalAndIdle(t *testing.T) {
	if !Arrived(orb.Point{0, 0}, orb.Point{1, 0}, 1) {
		t.Fatalf("radius is inclusive")
	}
	if Arrived(orb.Point{0, 0}, orb.Point{1.01, 0}, 1) {
		t.Fatalf("outside radius")
	}
	if !IdleReached(orb.Point{0, 0}, orb.Point{0.55, 0}, 0.5, 0.1) {
		t.Fatalf("slack should count toward idle")
	}
}
