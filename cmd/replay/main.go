package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "villagecraft.ai/internal/persistence/log"
	"villagecraft.ai/internal/sim/catalogs"
	"villagecraft.ai/internal/sim/tasks"
	"villagecraft.ai/internal/sim/tuning"
	"villagecraft.ai/internal/sim/world"
)

var errStop = errors.New("stop")

func main() {
	var (
		worldDir  = flag.String("world_dir", "", "world data dir containing ticks/ticks-*.jsonl.zst")
		configDir = flag.String("configs", "./configs", "config directory")
		scenario  = flag.String("scenario", "", "scenario the run was started from (default: <configs>/scenario.yaml)")
		runID     = flag.String("run", "", "run id to replay (default: first run in the log)")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		verbose   = flag.Bool("v", false, "print every tick digest")
	)
	flag.Parse()

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -world_dir")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tune, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		tune = tuning.Defaults()
	}
	sp := *scenario
	if sp == "" {
		sp = filepath.Join(*configDir, "scenario.yaml")
	}
	sc, err := world.LoadScenario(sp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load scenario:", err)
		os.Exit(1)
	}

	w, err := world.New(world.ConfigFromTuning(filepath.Base(*worldDir), tune), cats, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
	if err := w.Populate(sc); err != nil {
		fmt.Fprintln(os.Stderr, "populate:", err)
		os.Exit(1)
	}

	files, err := persistlog.TickFiles(*worldDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", *worldDir)
		os.Exit(1)
	}

	r := &replayer{w: w, runID: *runID, toTick: *toTick, verbose: *verbose}
	for _, path := range files {
		err := persistlog.ReadTicks(path, r.apply)
		if err == nil {
			err = r.err
		}
		if errors.Is(err, errStop) {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: run=%s checked=%d ticks orders=%d last_tick=%d\n", r.runID, r.checked, r.orders, w.CurrentTick())
}

type replayer struct {
	w       *world.World
	runID   string
	toTick  uint64
	verbose bool

	checked uint64
	orders  int
	err     error
}

func (r *replayer) apply(entry world.TickLogEntry) bool {
	if r.runID == "" {
		r.runID = entry.RunID
	}
	if entry.RunID != r.runID {
		return true
	}
	if r.toTick != 0 && entry.Tick > r.toTick {
		r.err = errStop
		return false
	}
	if entry.Tick < r.w.CurrentTick() {
		r.err = fmt.Errorf("tick went backwards: log=%d world=%d", entry.Tick, r.w.CurrentTick())
		return false
	}
	// Idle ticks may have been skipped by the logger.
	for r.w.CurrentTick() < entry.Tick {
		r.w.StepOnce(nil)
	}

	orders := make([]tasks.Order, 0, len(entry.Orders))
	for _, ro := range entry.Orders {
		orders = append(orders, ro.Order())
	}
	r.orders += len(orders)

	tick, got := r.w.StepOnce(orders)
	if tick != entry.Tick {
		r.err = fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
		return false
	}
	r.checked++
	if r.verbose {
		fmt.Printf("tick=%d orders=%d digest=%s\n", tick, len(orders), got)
	}
	if got != entry.Digest {
		r.err = fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, got, entry.Digest)
		return false
	}
	return true
}
