package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"villagecraft.ai/internal/persistence/indexdb"
	"villagecraft.ai/internal/sim/catalogs"
	"villagecraft.ai/internal/sim/tuning"
	"villagecraft.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	Close() error
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
	RecordRun(runID, worldID string)
}

func openRuntimeIndex(worldDir string, tune tuning.Tuning, disableDB bool) (runtimeIndex, error) {
	if disableDB || !tune.Index.Enabled {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		return indexdb.OpenSQLiteQueue(dbPath, tune.Index.QueueSize)
	default:
		return nil, fmt.Errorf("unsupported VC_INDEX_BACKEND: %s", backend)
	}
}
