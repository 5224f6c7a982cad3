package sched

// Proc is the handle a running chain uses to suspend itself.
type Proc struct {
	s      *Scheduler
	task   *task
	yield  func(wait) bool
	halted bool
}

func (p *Proc) Owner() string { return p.task.owner }

func (p *Proc) Now() float64 { return p.s.Now() }

// Delta is the simulated time that passes between two resumptions of a chain
// waiting on Tick.
func (p *Proc) Delta() float64 { return p.s.dt }

// Tick suspends the chain until the next scheduler step.
func (p *Proc) Tick() error {
	return p.suspend(wait{kind: waitTick})
}

// Sleep suspends the chain for d simulated seconds. The chain resumes on the
// first step whose clock has reached the deadline.
func (p *Proc) Sleep(d float64) error {
	return p.suspend(wait{kind: waitUntil, until: p.s.Now() + d})
}

// Spawn starts a sibling chain for the same owner without waiting for it.
func (p *Proc) Spawn(name string, fn Func) {
	p.s.Start(p.task.owner, name, fn)
}

func (p *Proc) suspend(w wait) error {
	if p.halted {
		return ErrHalted
	}
	if !p.yield(w) {
		p.halted = true
		return ErrHalted
	}
	return nil
}
