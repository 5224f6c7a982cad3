package log

import (
	"path/filepath"
	"testing"
	"time"

	"villagecraft.ai/internal/sim/tasks"
	"villagecraft.ai/internal/sim/world"
)

func TestTickLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	entries := []world.TickLogEntry{
		{Tick: 0, RunID: "r1", Digest: "d0", Orders: []world.RecordedOrder{
			{OrderID: "o1", AgentID: "A1", Kind: tasks.KindHarvest, Target: [2]float64{3, 0}, Accepted: true},
		}},
		{Tick: 1, RunID: "r1", Digest: "d1", Despawned: []string{"A2"}},
	}
	for _, e := range entries {
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := TickFiles(dir)
	if err != nil || len(files) == 0 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	var got []world.TickLogEntry
	for _, f := range files {
		if err := ReadTicks(f, func(e world.TickLogEntry) bool {
			got = append(got, e)
			return true
		}); err != nil {
			t.Fatalf("ReadTicks: %v", err)
		}
	}
	if len(got) != 2 {
		t.Fatalf("entries=%d", len(got))
	}
	if o := got[0].Orders; len(o) != 1 || o[0].Kind != tasks.KindHarvest || o[0].Target != [2]float64{3, 0} || !o[0].Accepted {
		t.Fatalf("orders=%+v", o)
	}
	if got[1].Digest != "d1" || len(got[1].Despawned) != 1 || got[1].Despawned[0] != "A2" {
		t.Fatalf("entry=%+v", got[1])
	}
}

func TestReadTicksStopsEarly(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for i := uint64(0); i < 5; i++ {
		if err := l.WriteTick(world.TickLogEntry{Tick: i, Digest: "x"}); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	_ = l.Close()
	files, _ := TickFiles(dir)
	n := 0
	_ = ReadTicks(files[0], func(world.TickLogEntry) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Fatalf("visited=%d", n)
	}
}

func TestTickLoggerRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	l := newTickLogger(dir, func() time.Time { return clock })

	for i := uint64(0); i < 4; i++ {
		if i == 2 {
			clock = clock.Add(2 * time.Minute)
		}
		if err := l.WriteTick(world.TickLogEntry{Tick: i, RunID: "r1"}); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	_ = l.Close()

	files, err := TickFiles(dir)
	if err != nil || len(files) != 2 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	if filepath.Base(files[0]) != "ticks-2026-03-01-10.jsonl.zst" || filepath.Base(files[1]) != "ticks-2026-03-01-11.jsonl.zst" {
		t.Fatalf("files=%v", files)
	}
	var ticks []uint64
	for _, f := range files {
		_ = ReadTicks(f, func(e world.TickLogEntry) bool {
			ticks = append(ticks, e.Tick)
			return true
		})
	}
	if len(ticks) != 4 || ticks[0] != 0 || ticks[3] != 3 {
		t.Fatalf("ticks=%v", ticks)
	}
}

func TestTickLoggerRejectsRegression(t *testing.T) {
	l := NewTickLogger(t.TempDir())
	defer l.Close()
	if err := l.WriteTick(world.TickLogEntry{Tick: 5, RunID: "r1"}); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	if err := l.WriteTick(world.TickLogEntry{Tick: 3, RunID: "r1"}); err == nil {
		t.Fatalf("expected error for a tick going backwards")
	}
	if err := l.WriteTick(world.TickLogEntry{Tick: 0, RunID: "r2"}); err != nil {
		t.Fatalf("a new run starts over: %v", err)
	}
}
