package main

import (
	"net/http/httptest"
	"strings"
	"testing"

	"villagecraft.ai/internal/sim/world"
)

type fakeMetrics struct {
	m    world.WorldMetrics
	tick uint64
}

func (f fakeMetrics) Metrics() world.WorldMetrics { return f.m }
func (f fakeMetrics) CurrentTick() uint64         { return f.tick }

func TestMetricsHandler(t *testing.T) {
	src := fakeMetrics{
		m:    world.WorldMetrics{Agents: 3, Camps: 2, OrdersAccepted: 9, OrdersRejected: 1, StepMS: 0.25},
		tick: 42,
	}
	rec := httptest.NewRecorder()
	metricsHandler("v1", src).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`villagecraft_world_tick{world="v1"} 42`,
		`villagecraft_world_agents{world="v1"} 3`,
		`villagecraft_world_entities{world="v1",kind="camp"} 2`,
		`villagecraft_orders_total{world="v1",outcome="accepted"} 9`,
		`villagecraft_orders_total{world="v1",outcome="rejected"} 1`,
		`villagecraft_world_step_ms{world="v1"} 0.250`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q", ct)
	}
}
