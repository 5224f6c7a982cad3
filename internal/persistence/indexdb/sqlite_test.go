package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"villagecraft.ai/internal/sim/catalogs"
	"villagecraft.ai/internal/sim/tasks"
	"villagecraft.ai/internal/sim/tuning"
	"villagecraft.ai/internal/sim/world"
)

func TestSQLiteIndex_WriteTick(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	idx.RecordRun("run-1", "village")
	if err := idx.WriteTick(world.TickLogEntry{
		Tick:   7,
		RunID:  "run-1",
		Digest: "abc",
		Orders: []world.RecordedOrder{
			{OrderID: "o1", AgentID: "A1", Kind: tasks.KindHarvest, Target: [2]float64{3, -1.5}, Accepted: true},
			{OrderID: "o2", AgentID: "A2", Kind: tasks.KindStore, Target: [2]float64{0, 0}, BackToResource: true, Code: "E_INVALID_TARGET"},
		},
		Despawned: []string{"A3"},
	}); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		digest    string
		orders    int
		despawned int
	)
	row := db.QueryRow(`SELECT digest,orders,despawned FROM ticks WHERE run_id='run-1' AND tick=7`)
	if err := row.Scan(&digest, &orders, &despawned); err != nil {
		t.Fatalf("Scan ticks: %v", err)
	}
	if digest != "abc" || orders != 2 || despawned != 1 {
		t.Fatalf("tick row mismatch: digest=%q orders=%d despawned=%d", digest, orders, despawned)
	}

	var (
		kind     string
		z        float64
		back     int
		accepted int
		code     sql.NullString
	)
	row = db.QueryRow(`SELECT kind,z,back_to_resource,accepted,code FROM orders WHERE run_id='run-1' AND tick=7 AND seq=1`)
	if err := row.Scan(&kind, &z, &back, &accepted, &code); err != nil {
		t.Fatalf("Scan orders: %v", err)
	}
	if kind != "STORE" || z != 0 || back != 1 || accepted != 0 || code.String != "E_INVALID_TARGET" {
		t.Fatalf("order row mismatch: kind=%s z=%v back=%d accepted=%d code=%v", kind, z, back, accepted, code)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM orders WHERE agent_id='A1' AND accepted=1`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("accepted A1 orders=%d err=%v", n, err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM despawns WHERE agent_id='A3'`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("despawns=%d err=%v", n, err)
	}
	var worldID string
	if err := db.QueryRow(`SELECT world_id FROM runs WHERE run_id='run-1'`).Scan(&worldID); err != nil || worldID != "village" {
		t.Fatalf("run world=%q err=%v", worldID, err)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	tune, err := tuning.Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("tuning: %v", err)
	}

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.UpsertCatalogs("../../../configs", cats, tune); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	_ = idx.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n); err != nil || n != 4 {
		t.Fatalf("catalog rows=%d err=%v", n, err)
	}
	var digest string
	if err := db.QueryRow(`SELECT digest FROM catalogs WHERE name='units'`).Scan(&digest); err != nil || digest != cats.Units.Digest {
		t.Fatalf("units digest=%q err=%v", digest, err)
	}
}

func TestSQLiteIndex_ClosedIsNoop(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.Close()
	if err := idx.WriteTick(world.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("WriteTick after close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
