package world

import (
	"context"
	"time"

	"github.com/google/uuid"

	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/tasks"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer w.sched.Close()

	var pendingOrders []tasks.Order

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case req := <-w.leave:
			w.handleLeave(req)
		case req := <-w.eventsReq:
			w.handleEventsReq(req)
		case o := <-w.inbox:
			pendingOrders = append(pendingOrders, o)
		case <-ticker.C:
			w.stepInternal(pendingOrders)
			pendingOrders = pendingOrders[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Submit queues an order for the next tick. It reports false when the inbox
// is full.
func (w *World) Submit(o tasks.Order) bool {
	select {
	case w.inbox <- o:
		return true
	default:
		return false
	}
}

func (w *World) handleJoin(req JoinRequest) {
	resp := w.joinAgent(req.AgentID, req.Out)
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func (w *World) joinAgent(agentID string, out chan []byte) JoinResponse {
	a, ok := w.agents[agentID]
	if !ok {
		return JoinResponse{Code: protocol.ErrInvalidTarget, Message: "unknown agent " + agentID}
	}
	if a.Dead() {
		return JoinResponse{Code: protocol.ErrConflict, Message: "agent " + agentID + " is dead"}
	}
	if prev := w.clients[agentID]; prev != nil {
		w.log.Printf("agent %s rebound; previous session detached", agentID)
	}
	w.clients[agentID] = &clientState{Out: out}

	b := w.cfg.Bounds
	digests := w.catalogs.Digests()
	return JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		RunID:           w.runID,
		AgentID:         agentID,
		Tick:            w.tick.Load(),
		WorldParams: protocol.WorldParams{
			TickRateHz: w.cfg.TickRateHz,
			Bounds:     [4]float64{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()},
		},
		Catalogs: protocol.CatalogDigests{
			ResourcesDigest: digests["resources"],
			UnitsDigest:     digests["units"],
			BuildingsDigest: digests["buildings"],
			TuningDigest:    w.cfg.TuningDigest,
		},
	}}
}

func (w *World) handleLeave(req LeaveRequest) {
	cl := w.clients[req.AgentID]
	if cl == nil || cl.Out != req.Out {
		return
	}
	delete(w.clients, req.AgentID)
}

func (w *World) handleEventsReq(req EventsRequest) {
	resp := EventsResponse{NextCursor: req.SinceCursor}
	if a, ok := w.agents[req.AgentID]; ok {
		resp.Events, resp.NextCursor = a.EventsAfter(req.SinceCursor, req.Limit)
		resp.Found = true
	}
	if req.Resp != nil {
		req.Resp <- resp
	}
}

// RequestEventsAfter asks the world loop for the retained events of an agent
// after the given cursor.
func (w *World) RequestEventsAfter(ctx context.Context, agentID string, sinceCursor uint64, limit int) (EventsResponse, error) {
	req := EventsRequest{
		AgentID:     agentID,
		SinceCursor: sinceCursor,
		Limit:       limit,
		Resp:        make(chan EventsResponse, 1),
	}
	select {
	case w.eventsReq <- req:
	case <-ctx.Done():
		return EventsResponse{}, ctx.Err()
	}
	select {
	case resp := <-req.Resp:
		return resp, nil
	case <-ctx.Done():
		return EventsResponse{}, ctx.Err()
	}
}
