package sched

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func TestStartRunsUntilFirstSuspension(t *testing.T) {
	s := New(0.1, nil)
	var trace []string
	s.Start("A1", "walk", func(p *Proc) error {
		trace = append(trace, "start")
		if err := p.Tick(); err != nil {
			return err
		}
		trace = append(trace, "resumed")
		return nil
	})
	if len(trace) != 1 || trace[0] != "start" {
		t.Fatalf("expected synchronous first segment, got %v", trace)
	}
	if s.Running("A1") != 1 {
		t.Fatalf("expected one running chain")
	}
	s.Step()
	if len(trace) != 2 {
		t.Fatalf("expected resume on step, got %v", trace)
	}
	if s.Running("") != 0 {
		t.Fatalf("expected chain to finish")
	}
}

func TestSleepResumesAfterDeadline(t *testing.T) {
	s := New(0.1, nil)
	resumedAt := -1.0
	s.Start("A1", "lift", func(p *Proc) error {
		if err := p.Sleep(0.5); err != nil {
			return err
		}
		resumedAt = p.Now()
		return nil
	})
	for i := 0; i < 4; i++ {
		s.Step()
		if resumedAt >= 0 {
			t.Fatalf("resumed early at step %d (t=%v)", i+1, resumedAt)
		}
	}
	s.Step()
	if resumedAt < 0.5-1e-9 || resumedAt > 0.5+1e-9 {
		t.Fatalf("resumedAt=%v want 0.5", resumedAt)
	}
}

func TestSpawnedChainWaitsForNextStep(t *testing.T) {
	s := New(0.1, nil)
	var trace []string
	s.Start("A1", "parent", func(p *Proc) error {
		if err := p.Tick(); err != nil {
			return err
		}
		p.Spawn("child", func(c *Proc) error {
			trace = append(trace, "child-first")
			if err := c.Tick(); err != nil {
				return err
			}
			trace = append(trace, "child-second")
			return nil
		})
		trace = append(trace, "parent-after-spawn")
		return nil
	})
	s.Step()
	want := []string{"child-first", "parent-after-spawn"}
	if strings.Join(trace, ",") != strings.Join(want, ",") {
		t.Fatalf("trace=%v want %v", trace, want)
	}
	s.Step()
	if trace[len(trace)-1] != "child-second" {
		t.Fatalf("child not resumed on next step: %v", trace)
	}
}

func TestCloseHaltsSuspendedChains(t *testing.T) {
	s := New(0.1, nil)
	var got error
	s.Start("A1", "forever", func(p *Proc) error {
		for {
			if err := p.Tick(); err != nil {
				got = err
				return err
			}
		}
	})
	s.Step()
	s.Close()
	if !errors.Is(got, ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", got)
	}
	s.Start("A1", "late", func(p *Proc) error {
		t.Fatalf("closed scheduler must not start chains")
		return nil
	})
}

func TestHaltOwnerLeavesOthersRunning(t *testing.T) {
	s := New(0.1, nil)
	loop := func(p *Proc) error {
		for {
			if err := p.Tick(); err != nil {
				return err
			}
		}
	}
	s.Start("A1", "loop", loop)
	s.Start("A2", "loop", loop)
	s.HaltOwner("A1")
	if s.Running("A1") != 0 || s.Running("A2") != 1 {
		t.Fatalf("running A1=%d A2=%d", s.Running("A1"), s.Running("A2"))
	}
	s.Close()
}

func TestPanicEndsOnlyThatChain(t *testing.T) {
	var buf bytes.Buffer
	s := New(0.1, log.New(&buf, "", 0))
	s.Start("A1", "bad", func(p *Proc) error {
		if err := p.Tick(); err != nil {
			return err
		}
		panic("missing resource info")
	})
	ok := false
	s.Start("A2", "good", func(p *Proc) error {
		if err := p.Tick(); err != nil {
			return err
		}
		ok = true
		return nil
	})
	s.Step()
	if !ok {
		t.Fatalf("healthy chain did not run")
	}
	if !strings.Contains(buf.String(), "panicked") {
		t.Fatalf("expected panic to be logged, got %q", buf.String())
	}
	if s.Running("") != 0 {
		t.Fatalf("expected no running chains")
	}
}
