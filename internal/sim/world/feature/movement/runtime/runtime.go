package runtime

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// MoveTolerance clamps an arrival radius to something a fixed-step mover can
// actually reach.
func MoveTolerance(tolerance float64) float64 {
	if tolerance < 0.05 {
		return 0.05
	}
	return tolerance
}

func Arrived(pos, dest orb.Point, radius float64) bool {
	return planar.Distance(pos, dest) <= radius
}

// IdleReached is the idle-detection test: within stopping distance plus slack.
func IdleReached(pos, dest orb.Point, stoppingDistance, slack float64) bool {
	return planar.Distance(pos, dest) <= stoppingDistance+slack
}

// StepToward moves cur toward dest by at most maxStep and reports the distance
// left afterwards.
func StepToward(cur, dest orb.Point, maxStep float64) (orb.Point, float64) {
	d := planar.Distance(cur, dest)
	if d <= maxStep || d == 0 {
		return dest, 0
	}
	if maxStep <= 0 {
		return cur, d
	}
	f := maxStep / d
	next := orb.Point{cur[0] + (dest[0]-cur[0])*f, cur[1] + (dest[1]-cur[1])*f}
	return next, d - maxStep
}
