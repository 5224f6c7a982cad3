package presentation

import (
	"testing"

	"villagecraft.ai/internal/protocol"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

func TestEventHooksRecordPresentEvents(t *testing.T) {
	a := &modelpkg.Agent{ID: "A1"}
	h := EventHooks{NowTick: func() uint64 { return 7 }}
	h.SetFlag(a, FlagWorking, true)
	h.Trigger(a, "")
	h.Trigger(a, TriggerHammering)
	h.Face(a, modelpkg.Ground(1, 2))

	ev := a.TakeEvents()
	if len(ev) != 3 {
		t.Fatalf("expected 3 events (empty trigger skipped), got %d", len(ev))
	}
	for _, e := range ev {
		if e["type"] != protocol.EventPresent || e["t"] != uint64(7) {
			t.Fatalf("unexpected event %v", e)
		}
	}
	if a.Facing != modelpkg.Ground(1, 2) {
		t.Fatalf("facing not updated: %v", a.Facing)
	}
}
