package model

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Target is a plain positional value. Two orders aimed at the same point are
// the same order.
type Target struct {
	Pos orb.Point
	Set bool
}

var NoTarget = Target{}

func TargetAt(p orb.Point) Target {
	return Target{Pos: p, Set: true}
}

func (t Target) String() string {
	if !t.Set {
		return "none"
	}
	return fmt.Sprintf("(%.2f,%.2f)", t.Pos.X(), t.Pos.Y())
}

// Ground builds a ground-plane point. The second orb coordinate carries Z.
func Ground(x, z float64) orb.Point {
	return orb.Point{x, z}
}

func Dist(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// SamePoint compares positions with a small tolerance for values that went
// through JSON or YAML.
func SamePoint(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) <= 1e-6 && math.Abs(a[1]-b[1]) <= 1e-6
}
