package movement

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	rtpkg "villagecraft.ai/internal/sim/world/feature/movement/runtime"
)

// Linear moves agents in straight lines at their configured speed. It has no
// notion of terrain or collision.
type Linear struct {
	navs map[string]*linearNav

	// ObstacleViolations counts agent-steps where both the mover and the
	// obstacle representation were active at once.
	ObstacleViolations int
}

func NewLinear() *Linear {
	return &Linear{navs: map[string]*linearNav{}}
}

func (l *Linear) Attach(agentID string, pos *orb.Point, speed, stoppingDistance float64) Navigator {
	n := &linearNav{
		pos:      pos,
		speed:    speed,
		stopping: ClampStoppingDistance(stoppingDistance),
		enabled:  true,
	}
	l.navs[agentID] = n
	return n
}

func (l *Linear) Detach(agentID string) {
	delete(l.navs, agentID)
}

func (l *Linear) Get(agentID string) (Navigator, bool) {
	n, ok := l.navs[agentID]
	if !ok {
		return nil, false
	}
	return n, true
}

func (l *Linear) Step(dt float64) {
	if dt <= 0 {
		return
	}
	ids := make([]string, 0, len(l.navs))
	for id := range l.navs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := l.navs[id]
		if n.enabled && n.obstacle {
			l.ObstacleViolations++
		}
		n.step(dt)
	}
}

type linearNav struct {
	pos      *orb.Point
	speed    float64
	stopping float64

	dest     orb.Point
	hasPath  bool
	velocity orb.Point

	enabled  bool
	obstacle bool
}

func (n *linearNav) step(dt float64) {
	if !n.enabled || !n.hasPath || n.pos == nil {
		n.velocity = orb.Point{}
		return
	}
	d := planar.Distance(*n.pos, n.dest)
	if d <= n.stopping {
		n.velocity = orb.Point{}
		return
	}
	maxStep := n.speed * dt
	if maxStep > d-n.stopping {
		maxStep = d - n.stopping
	}
	prev := *n.pos
	next, _ := rtpkg.StepToward(prev, n.dest, maxStep)
	*n.pos = next
	n.velocity = orb.Point{(next[0] - prev[0]) / dt, (next[1] - prev[1]) / dt}
}

func (n *linearNav) SetDestination(p orb.Point) bool {
	if !n.enabled {
		return false
	}
	n.dest = p
	n.hasPath = true
	return true
}

func (n *linearNav) Destination() orb.Point { return n.dest }

func (n *linearNav) Stop() {
	if !n.enabled {
		return
	}
	n.hasPath = false
	n.velocity = orb.Point{}
}

func (n *linearNav) Velocity() orb.Point { return n.velocity }

func (n *linearNav) RemainingDistance() float64 {
	if !n.hasPath || n.pos == nil {
		return 0
	}
	return planar.Distance(*n.pos, n.dest)
}

func (n *linearNav) StoppingDistance() float64 { return n.stopping }

func (n *linearNav) Enabled() bool { return n.enabled }

func (n *linearNav) SetEnabled(on bool) {
	n.enabled = on
	if !on {
		n.hasPath = false
		n.velocity = orb.Point{}
	}
}

func (n *linearNav) ObstacleEnabled() bool { return n.obstacle }

func (n *linearNav) SetObstacle(on bool) { n.obstacle = on }

func (n *linearNav) Speed() float64 { return n.speed }

func (n *linearNav) SetSpeed(v float64) {
	if v < 0 {
		v = 0
	}
	n.speed = v
}
