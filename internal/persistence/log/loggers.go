package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"villagecraft.ai/internal/sim/world"
)

const (
	tickDir    = "ticks"
	tickPrefix = "ticks"
	hourLayout = "2006-01-02-15"
)

// tickGlob matches every tick log of a world directory. The hour layout
// sorts lexically, so a sorted glob is chronological.
func tickGlob(worldDir string) string {
	return filepath.Join(worldDir, tickDir, tickPrefix+"-*.jsonl.zst")
}

// hourlyWriter appends JSON lines to a zstd stream, starting a new file each
// UTC hour.
type hourlyWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func newHourlyWriter(baseDir, prefix string, now func() time.Time) *hourlyWriter {
	if now == nil {
		now = time.Now
	}
	return &hourlyWriter{baseDir: baseDir, prefix: prefix, now: now}
}

func (w *hourlyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *hourlyWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	hour := w.now().UTC().Format(hourLayout)
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	// Every line is flushed: the open hour file stays readable up to here.
	return w.w.Flush()
}

func (w *hourlyWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f, w.enc = f, enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *hourlyWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	return err
}

// TickLogger records one world.TickLogEntry per logged tick: the orders
// applied with their results, despawned agents and the state digest. The
// replay tool reads these back with ReadTicks.
//
// Ticks of one run must not go backwards; replay fills gaps (skipped idle
// ticks) but cannot reorder.
type TickLogger struct {
	w *hourlyWriter

	mu      sync.Mutex
	runID   string
	last    uint64
	written bool
}

func NewTickLogger(worldDir string) *TickLogger {
	return newTickLogger(worldDir, nil)
}

func newTickLogger(worldDir string, now func() time.Time) *TickLogger {
	return &TickLogger{w: newHourlyWriter(filepath.Join(worldDir, tickDir), tickPrefix, now)}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.written && e.RunID == l.runID && e.Tick < l.last {
		return fmt.Errorf("tick log: run %s went back from tick %d to %d", e.RunID, l.last, e.Tick)
	}
	if err := l.w.Write(e); err != nil {
		return err
	}
	l.runID, l.last, l.written = e.RunID, e.Tick, true
	return nil
}

func (l *TickLogger) Close() error { return l.w.Close() }
