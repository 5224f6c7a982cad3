package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/catalogs"
	"villagecraft.ai/internal/sim/tuning"
	"villagecraft.ai/internal/sim/world"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

func startServer(t *testing.T) string {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w, err := world.New(world.ConfigFromTuning("test", tuning.Defaults()), cats, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if _, err := w.SpawnAgent(world.AgentSpec{ID: "A1", UnitType: "villager", Pos: modelpkg.Ground(0, 0)}); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()

	srv := httptest.NewServer(NewServer(w, v, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHello(t *testing.T, url, agentID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test", AgentID: agentID}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("hello: %v", err)
	}
	return conn
}

// readUntil reads frames until match accepts one or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(typ string, raw []byte) bool) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if match(base.Type, msg) {
			return
		}
	}
}

func TestHelloWelcomeThenOrderResult(t *testing.T) {
	url := startServer(t)
	conn := dialHello(t, url, "A1")

	var welcome protocol.WelcomeMsg
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome.Type != protocol.TypeWelcome || welcome.AgentID != "A1" || welcome.SessionID == "" || welcome.WorldParams.TickRateHz != 10 {
		t.Fatalf("welcome=%+v", welcome)
	}

	target := [2]float64{4, 0}
	order := protocol.OrderMsg{Type: protocol.TypeOrder, ProtocolVersion: protocol.Version, OrderID: "o1", Kind: "MOVE_TO", Target: &target}
	if err := conn.WriteJSON(order); err != nil {
		t.Fatalf("order: %v", err)
	}
	readUntil(t, conn, func(typ string, raw []byte) bool {
		if typ != protocol.TypeActionResult {
			return false
		}
		var res protocol.ActionResultMsg
		_ = json.Unmarshal(raw, &res)
		if res.OrderID != "o1" || !res.Accepted {
			t.Fatalf("result=%+v", res)
		}
		return true
	})
	readUntil(t, conn, func(typ string, raw []byte) bool {
		if typ != protocol.TypeState {
			return false
		}
		var st protocol.StateMsg
		_ = json.Unmarshal(raw, &st)
		return st.Agent.ID == "A1" && st.Agent.Mode == string(modelpkg.ModeMoving)
	})
}

func TestSchemaRejectsOrderWithoutTarget(t *testing.T) {
	url := startServer(t)
	conn := dialHello(t, url, "A1")
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ORDER","protocol_version":"1.0","order_id":"bad","kind":"HARVEST"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(typ string, raw []byte) bool {
		if typ != protocol.TypeActionResult {
			return false
		}
		var res protocol.ActionResultMsg
		_ = json.Unmarshal(raw, &res)
		if res.OrderID != "bad" || res.Accepted || res.Code != protocol.ErrProtoBadRequest {
			t.Fatalf("result=%+v", res)
		}
		return true
	})
}

func TestEventBatchReturnsRetainedEvents(t *testing.T) {
	url := startServer(t)
	conn := dialHello(t, url, "A1")
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if err := conn.WriteJSON(protocol.OrderMsg{Type: protocol.TypeOrder, ProtocolVersion: protocol.Version, OrderID: "s", Kind: "STOP"}); err != nil {
		t.Fatalf("order: %v", err)
	}
	readUntil(t, conn, func(typ string, _ []byte) bool { return typ == protocol.TypeActionResult })

	req := protocol.EventBatchReqMsg{Type: protocol.TypeEventBatchReq, ProtocolVersion: protocol.Version, ReqID: "r1", Limit: 10}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("req: %v", err)
	}
	readUntil(t, conn, func(typ string, raw []byte) bool {
		if typ != protocol.TypeEventBatch {
			return false
		}
		var b protocol.EventBatchMsg
		_ = json.Unmarshal(raw, &b)
		if b.ReqID != "r1" || len(b.Events) == 0 || b.NextCursor == 0 {
			t.Fatalf("batch=%+v", b)
		}
		return true
	})
}

func TestHelloForUnknownAgentIsClosed(t *testing.T) {
	url := startServer(t)
	conn := dialHello(t, url, "nobody")
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}
