package protocol_test

import (
	"encoding/json"
	"testing"

	"villagecraft.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	valid := map[string]string{
		protocol.TypeHello: `{
		  "type":"HELLO",
		  "protocol_version":"1.0",
		  "client_name":"bot1",
		  "agent_id":"villager-1",
		  "capabilities":{"max_queue":8}
		}`,
		protocol.TypeOrder: `{
		  "type":"ORDER",
		  "protocol_version":"1.0",
		  "order_id":"O1",
		  "kind":"HARVEST",
		  "target":[4.5,-2]
		}`,
		protocol.TypeEventBatchReq: `{
		  "type":"EVENT_BATCH_REQ",
		  "protocol_version":"1.0",
		  "req_id":"R1",
		  "since_cursor":12,
		  "limit":50
		}`,
	}
	for typ, raw := range valid {
		if err := v.Validate(typ, []byte(raw)); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
	}

	drop := `{"type":"ORDER","protocol_version":"1.0","order_id":"O2","kind":"DROP"}`
	if err := v.Validate(protocol.TypeOrder, []byte(drop)); err != nil {
		t.Fatalf("DROP without target should pass: %v", err)
	}
}

func TestSchemas_RejectsBadOrders(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	bad := []string{
		`{"type":"ORDER","protocol_version":"1.0","order_id":"O1","kind":"MINE","target":[1,1]}`,
		`{"type":"ORDER","protocol_version":"1.0","order_id":"O1","kind":"HARVEST"}`,
		`{"type":"ORDER","protocol_version":"1.0","order_id":"O1","kind":"MOVE_TO","target":[1,2,3]}`,
		`{"type":"ORDER","protocol_version":"1.0","kind":"STOP"}`,
	}
	for _, raw := range bad {
		if err := v.Validate(protocol.TypeOrder, []byte(raw)); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
}

func TestStateFrameMatchesSchema(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	target := [2]float64{3, 4}
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            7,
		Agent: protocol.AgentState{
			ID:      "villager-1",
			Pos:     [2]float64{1, 2},
			Mode:    "MOVING",
			Target:  &target,
			Carried: protocol.ItemStack{Item: "WOOD", Count: 3},
		},
		Events: []protocol.Event{{"t": 7, "type": protocol.EventHarvested}},
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := v.Validate(protocol.TypeState, b); err != nil {
		t.Fatalf("state frame: %v", err)
	}
}
