package main

import (
	"fmt"
	"io"
	"net/http"

	"villagecraft.ai/internal/sim/world"
)

type metricsSource interface {
	Metrics() world.WorldMetrics
	CurrentTick() uint64
}

func metricsHandler(worldID string, src metricsSource) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := src.Metrics()
		if m.Tick == 0 {
			m.Tick = src.CurrentTick()
		}
		writeMetrics(rw, worldID, m)
	}
}

// writeMetrics renders the world metrics in the Prometheus text exposition
// format.
func writeMetrics(w io.Writer, worldID string, m world.WorldMetrics) {
	gauge := func(name, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s{world=%q} %v\n", name, worldID, v)
	}
	gauge("villagecraft_world_tick", "Current world tick.", m.Tick)
	gauge("villagecraft_world_agents", "Current number of agents in the world.", m.Agents)
	gauge("villagecraft_world_clients", "Current number of connected clients.", m.Clients)
	gauge("villagecraft_world_chains", "Running task chains.", m.Chains)
	gauge("villagecraft_world_inbox_depth", "Orders waiting for the next tick.", m.InboxDepth)
	fmt.Fprintf(w, "# HELP villagecraft_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(w, "# TYPE villagecraft_world_step_ms gauge\n")
	fmt.Fprintf(w, "villagecraft_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	fmt.Fprintf(w, "# HELP villagecraft_world_entities Registry entities by kind.\n")
	fmt.Fprintf(w, "# TYPE villagecraft_world_entities gauge\n")
	for _, e := range []struct {
		kind string
		n    int
	}{{"field", m.Fields}, {"camp", m.Camps}, {"drop", m.Drops}, {"site", m.Sites}, {"building", m.Buildings}} {
		fmt.Fprintf(w, "villagecraft_world_entities{world=%q,kind=%q} %d\n", worldID, e.kind, e.n)
	}

	fmt.Fprintf(w, "# HELP villagecraft_orders_total Orders applied, by outcome.\n")
	fmt.Fprintf(w, "# TYPE villagecraft_orders_total counter\n")
	fmt.Fprintf(w, "villagecraft_orders_total{world=%q,outcome=%q} %d\n", worldID, "accepted", m.OrdersAccepted)
	fmt.Fprintf(w, "villagecraft_orders_total{world=%q,outcome=%q} %d\n", worldID, "rejected", m.OrdersRejected)

	fmt.Fprintf(w, "# HELP villagecraft_obstacle_violations_total Agent-steps with mover and obstacle both enabled.\n")
	fmt.Fprintf(w, "# TYPE villagecraft_obstacle_violations_total counter\n")
	fmt.Fprintf(w, "villagecraft_obstacle_violations_total{world=%q} %d\n", worldID, m.ObstacleViolations)
}
