// Package sched runs worker chains as cooperative coroutines on the world
// goroutine. Exactly one chain executes at a time; a chain only gives up
// control at an explicit suspension point (Tick or Sleep) and is resumed by
// Step on a later tick.
package sched

import (
	"errors"
	"iter"
	"log"
)

// ErrHalted is returned from a suspension point once the scheduler (or the
// chain's owner) has been shut down. Chains must return promptly.
var ErrHalted = errors.New("sched: halted")

const timeEpsilon = 1e-9

type waitKind uint8

const (
	waitTick waitKind = iota
	waitUntil
)

type wait struct {
	kind  waitKind
	until float64
}

// Func is a chain body. A nil or ErrHalted return is a normal exit.
type Func func(p *Proc) error

type task struct {
	id    uint64
	owner string
	name  string

	next func() (wait, bool)
	stop func()

	w    wait
	done bool
}

type Scheduler struct {
	dt   float64
	tick uint64

	nextID uint64
	tasks  []*task
	closed bool

	log *log.Logger
}

func New(dt float64, logger *log.Logger) *Scheduler {
	if dt <= 0 {
		dt = 0.1
	}
	return &Scheduler{dt: dt, log: logger}
}

// Now is the simulated time in seconds.
func (s *Scheduler) Now() float64 { return float64(s.tick) * s.dt }

func (s *Scheduler) Delta() float64 { return s.dt }

func (s *Scheduler) Tick() uint64 { return s.tick }

// Start launches a chain and runs it synchronously up to its first suspension
// point, mirroring how a freshly issued order takes effect immediately.
func (s *Scheduler) Start(owner, name string, fn Func) {
	if s.closed || fn == nil {
		return
	}
	s.nextID++
	t := &task{id: s.nextID, owner: owner, name: name}
	p := &Proc{s: s, task: t}
	seq := func(yield func(wait) bool) {
		p.yield = yield
		if err := fn(p); err != nil && !errors.Is(err, ErrHalted) {
			s.logf("chain %s/%s#%d: %v", owner, name, t.id, err)
		}
	}
	t.next, t.stop = iter.Pull(seq)
	s.tasks = append(s.tasks, t)
	s.resume(t)
}

// Step advances the clock by one tick and resumes every chain that was
// already suspended when the step began. Chains started during the step run
// their first segment immediately and are next resumed on the following step.
func (s *Scheduler) Step() {
	if s.closed {
		return
	}
	s.tick++
	now := s.Now()
	pending := len(s.tasks)
	for i := 0; i < pending; i++ {
		t := s.tasks[i]
		if t.done {
			continue
		}
		if t.w.kind == waitUntil && now+timeEpsilon < t.w.until {
			continue
		}
		s.resume(t)
	}
	s.compact()
}

// HaltOwner stops every chain belonging to owner.
func (s *Scheduler) HaltOwner(owner string) {
	for _, t := range s.tasks {
		if t.owner == owner && !t.done {
			s.halt(t)
		}
	}
	s.compact()
}

// Close halts every running chain. The scheduler cannot be reused.
func (s *Scheduler) Close() {
	if s.closed {
		return
	}
	for _, t := range s.tasks {
		if !t.done {
			s.halt(t)
		}
	}
	s.tasks = nil
	s.closed = true
}

// Running reports how many chains owned by owner are still alive. An empty
// owner counts every chain.
func (s *Scheduler) Running(owner string) int {
	n := 0
	for _, t := range s.tasks {
		if t.done {
			continue
		}
		if owner == "" || t.owner == owner {
			n++
		}
	}
	return n
}

func (s *Scheduler) resume(t *task) {
	defer func() {
		if r := recover(); r != nil {
			t.done = true
			s.logf("chain %s/%s#%d panicked: %v", t.owner, t.name, t.id, r)
		}
	}()
	w, ok := t.next()
	if !ok {
		t.done = true
		t.stop()
		return
	}
	t.w = w
}

func (s *Scheduler) halt(t *task) {
	defer func() {
		if r := recover(); r != nil {
			s.logf("chain %s/%s#%d panicked while halting: %v", t.owner, t.name, t.id, r)
		}
	}()
	t.done = true
	t.stop()
}

func (s *Scheduler) compact() {
	out := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.done {
			out = append(out, t)
		}
	}
	for i := len(out); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = out
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}
