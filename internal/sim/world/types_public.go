package world

import (
	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/tasks"
)

// JoinRequest binds a client connection to an existing agent.
type JoinRequest struct {
	AgentID string
	Out     chan []byte
	Resp    chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	// Code is set when the bind is refused.
	Code    string
	Message string
}

// LeaveRequest detaches a client. Out identifies the connection so a stale
// leave cannot detach a newer session for the same agent.
type LeaveRequest struct {
	AgentID string
	Out     chan []byte
}

type EventsRequest struct {
	AgentID     string
	SinceCursor uint64
	Limit       int
	Resp        chan EventsResponse
}

type EventsResponse struct {
	Events     []protocol.Event
	NextCursor uint64
	Found      bool
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick      uint64          `json:"tick"`
	RunID     string          `json:"run_id,omitempty"`
	Orders    []RecordedOrder `json:"orders,omitempty"`
	Despawned []string        `json:"despawned,omitempty"`
	Digest    string          `json:"digest"`
}

type RecordedOrder struct {
	OrderID        string     `json:"order_id,omitempty"`
	AgentID        string     `json:"agent_id"`
	Kind           tasks.Kind `json:"kind"`
	Target         [2]float64 `json:"target"`
	BackToResource bool       `json:"back_to_resource,omitempty"`
	Accepted       bool       `json:"accepted"`
	Code           string     `json:"code,omitempty"`
}

// Order rebuilds the order as it was submitted.
func (r RecordedOrder) Order() tasks.Order {
	return tasks.Order{
		OrderID:        r.OrderID,
		AgentID:        r.AgentID,
		Kind:           r.Kind,
		Target:         r.Target,
		BackToResource: r.BackToResource,
	}
}

type WorldMetrics struct {
	Tick    uint64 `json:"tick"`
	Agents  int    `json:"agents"`
	Clients int    `json:"clients"`
	Chains  int    `json:"chains"`

	Fields    int `json:"fields"`
	Camps     int `json:"camps"`
	Drops     int `json:"drops"`
	Sites     int `json:"sites"`
	Buildings int `json:"buildings"`

	InboxDepth int     `json:"inbox_depth"`
	StepMS     float64 `json:"step_ms"`

	OrdersAccepted     uint64 `json:"orders_accepted"`
	OrdersRejected     uint64 `json:"orders_rejected"`
	ObstacleViolations int    `json:"obstacle_violations"`
}
