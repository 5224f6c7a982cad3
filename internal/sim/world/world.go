package world

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"villagecraft.ai/internal/sim/catalogs"
	"villagecraft.ai/internal/sim/tasks"
	"villagecraft.ai/internal/sim/tuning"
	"villagecraft.ai/internal/sim/world/feature/entities/registry"
	"villagecraft.ai/internal/sim/world/feature/movement"
	"villagecraft.ai/internal/sim/world/feature/presentation"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
	"villagecraft.ai/internal/sim/world/kernel/sched"
)

type WorldConfig struct {
	ID         string
	TickRateHz int
	Bounds     orb.Bound

	ConstructionDelay float64
	// MovingVelocity is the speed above which the isMoving flag is raised.
	MovingVelocity float64
	Radii          tuning.Radii

	// SkipIdleTicks omits tick log entries for ticks without orders.
	SkipIdleTicks bool

	TuningDigest string
}

// ConfigFromTuning maps the tuning file onto a world config.
func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:         id,
		TickRateHz: t.TickRateHz,
		Bounds: orb.Bound{
			Min: orb.Point{t.Bounds[0], t.Bounds[1]},
			Max: orb.Point{t.Bounds[2], t.Bounds[3]},
		},
		ConstructionDelay: t.ConstructionDelay,
		MovingVelocity:    t.MovingVelocity,
		Radii:             t.Radii,
		SkipIdleTicks:     t.TickLog.SkipIdleTicks,
		TuningDigest:      t.Digest(),
	}
}

func (c *WorldConfig) applyDefaults() {
	d := tuning.Defaults()
	if c.TickRateHz <= 0 {
		c.TickRateHz = d.TickRateHz
	}
	if c.Bounds.IsEmpty() {
		c.Bounds = orb.Bound{Min: orb.Point{d.Bounds[0], d.Bounds[1]}, Max: orb.Point{d.Bounds[2], d.Bounds[3]}}
	}
	if c.ConstructionDelay < 0 {
		c.ConstructionDelay = d.ConstructionDelay
	}
	if c.MovingVelocity <= 0 {
		c.MovingVelocity = d.MovingVelocity
	}
	if c.Radii.Collect <= 0 {
		c.Radii.Collect = d.Radii.Collect
	}
	if c.Radii.Access <= 0 {
		c.Radii.Access = d.Radii.Access
	}
	if c.Radii.Pickup <= 0 {
		c.Radii.Pickup = d.Radii.Pickup
	}
	if c.Radii.Site <= 0 {
		c.Radii.Site = d.Radii.Site
	}
}

// World is a single-threaded authoritative simulation session. It owns the
// registry, agents, chain scheduler, navigation and presentation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	log      *log.Logger
	runID    string

	reg   *registry.Registry
	nav   *movement.Linear
	hooks presentation.Hooks
	sched *sched.Scheduler
	env   *worldEnv

	agents   map[string]*modelpkg.Agent
	agentIDs []string
	moving   map[string]bool
	despawn  []string

	clients map[string]*clientState

	inbox     chan tasks.Order
	join      chan JoinRequest
	leave     chan LeaveRequest
	eventsReq chan EventsRequest
	stop      chan struct{}

	tick atomic.Uint64

	tickLogger TickLogger

	ordersAccepted uint64
	ordersRejected uint64
	metrics        atomic.Value // WorldMetrics
}

type clientState struct {
	Out chan []byte
}

func New(cfg WorldConfig, cats *catalogs.Catalogs, logger *log.Logger) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("world: nil catalogs")
	}
	cfg.applyDefaults()
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w := &World{
		cfg:       cfg,
		catalogs:  cats,
		log:       logger,
		runID:     uuid.NewString(),
		reg:       registry.New(cfg.Bounds),
		nav:       movement.NewLinear(),
		agents:    map[string]*modelpkg.Agent{},
		moving:    map[string]bool{},
		clients:   map[string]*clientState{},
		inbox:     make(chan tasks.Order, 1024),
		join:      make(chan JoinRequest, 64),
		leave:     make(chan LeaveRequest, 64),
		eventsReq: make(chan EventsRequest, 64),
		stop:      make(chan struct{}),
	}
	w.sched = sched.New(1/float64(cfg.TickRateHz), logger)
	w.hooks = presentation.EventHooks{NowTick: w.sched.Tick}
	w.env = &worldEnv{w: w}
	w.metrics.Store(WorldMetrics{})
	return w, nil
}

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

// RunID identifies this process's run of the world; it changes on restart.
func (w *World) RunID() string { return w.runID }

func (w *World) TickRateHz() int { return w.cfg.TickRateHz }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Inbox() chan<- tasks.Order { return w.inbox }

func (w *World) Join() chan<- JoinRequest { return w.join }

func (w *World) Leave() chan<- LeaveRequest { return w.leave }

func (w *World) EventsReq() chan<- EventsRequest { return w.eventsReq }

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

func (w *World) Metrics() WorldMetrics {
	m, _ := w.metrics.Load().(WorldMetrics)
	return m
}

// Registry exposes the resource registry. World goroutine only.
func (w *World) Registry() *registry.Registry { return w.reg }

// Agent returns a live agent. World goroutine only.
func (w *World) Agent(id string) (*modelpkg.Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

// AgentIDs returns the live agent ids in sorted order.
func (w *World) AgentIDs() []string {
	return append([]string(nil), w.agentIDs...)
}

// ObstacleViolations counts agent-steps where an agent was both a mover and
// an obstacle.
func (w *World) ObstacleViolations() int { return w.nav.ObstacleViolations }

func (w *World) addAgentID(id string) {
	i := sort.SearchStrings(w.agentIDs, id)
	w.agentIDs = append(w.agentIDs, "")
	copy(w.agentIDs[i+1:], w.agentIDs[i:])
	w.agentIDs[i] = id
}

func (w *World) removeAgentID(id string) {
	i := sort.SearchStrings(w.agentIDs, id)
	if i < len(w.agentIDs) && w.agentIDs[i] == id {
		w.agentIDs = append(w.agentIDs[:i], w.agentIDs[i+1:]...)
	}
}
