package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/tasks"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		agentID = flag.String("agent", "A1", "agent id to bind")
		kind    = flag.String("kind", "HARVEST", "order kind issued while the agent is idle")
		tx      = flag.Float64("x", 10, "order target x")
		tz      = flag.Float64("z", 0, "order target z")
	)
	flag.Parse()

	k, ok := tasks.ParseKind(*kind)
	if !ok {
		fmt.Fprintln(os.Stderr, "unknown order kind:", *kind)
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "bot",
		AgentID:         *agentID,
		Capabilities: protocol.HelloCapabilities{
			MaxQueue: 8,
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{conn: conn, log: logger, kind: k, target: [2]float64{*tx, *tz}}
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Printf("read: %v", err)
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME agent_id=%s run=%s tick_rate=%d", w.AgentID, w.RunID, w.WorldParams.TickRateHz)

		case protocol.TypeActionResult:
			var r protocol.ActionResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			if !protocol.IsKnownCode(r.Code) {
				logger.Printf("server sent unknown code %q", r.Code)
			}
			logger.Printf("ACTION_RESULT order=%s accepted=%v code=%s %s", r.OrderID, r.Accepted, r.Code, r.Message)
			b.pending = false

		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			b.handleState(&st)
		}
	}
}

type bot struct {
	conn   *websocket.Conn
	log    *log.Logger
	kind   tasks.Kind
	target [2]float64
	seq    int

	pending bool
}

// handleState re-issues the order whenever the agent goes idle.
func (b *bot) handleState(st *protocol.StateMsg) {
	for _, e := range st.Events {
		switch e["type"] {
		case protocol.EventTaskDone, protocol.EventTaskFail, protocol.EventResourceStored, protocol.EventDied:
			b.log.Printf("tick=%d event=%v", st.Tick, e)
		}
	}
	if b.pending || st.Agent.Mode != "IDLE" || st.Agent.Busy {
		return
	}
	b.seq++
	order := protocol.OrderMsg{
		Type:            protocol.TypeOrder,
		ProtocolVersion: protocol.Version,
		OrderID:         fmt.Sprintf("bot_%d", b.seq),
		Kind:            string(b.kind),
	}
	if b.kind.NeedsPoint() {
		t := b.target
		order.Target = &t
	}
	if err := b.conn.WriteJSON(order); err != nil {
		b.log.Printf("send ORDER: %v", err)
		return
	}
	b.pending = true
}
