package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"villagecraft.ai/internal/protocol"
	"villagecraft.ai/internal/sim/tasks"
	"villagecraft.ai/internal/sim/world"
)

type Server struct {
	world     *world.World
	log       *log.Logger
	validator *protocol.Validator

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, v *protocol.Validator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		world:     w,
		log:       logger,
		validator: v,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		agentID, out := s.handshake(conn)
		if agentID == "" {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine. All frames after WELCOME go through out.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeOrder:
				s.handleOrder(agentID, out, msg)
			case protocol.TypeEventBatchReq:
				s.handleEventBatch(ctx, agentID, out, msg)
			}
		}

		// Cleanup.
		s.world.Leave() <- world.LeaveRequest{AgentID: agentID, Out: out}
	}
}

func (s *Server) handleOrder(agentID string, out chan []byte, msg []byte) {
	var om protocol.OrderMsg
	if err := json.Unmarshal(msg, &om); err != nil {
		s.reject(out, "", protocol.ErrProtoBadRequest, err.Error())
		return
	}
	if om.ProtocolVersion != protocol.Version {
		s.reject(out, om.OrderID, protocol.ErrProtoBadRequest, "bad protocol_version")
		return
	}
	if s.validator != nil {
		if err := s.validator.Validate(protocol.TypeOrder, msg); err != nil {
			s.reject(out, om.OrderID, protocol.ErrProtoBadRequest, err.Error())
			return
		}
	}
	kind, ok := tasks.ParseKind(om.Kind)
	if !ok {
		s.reject(out, om.OrderID, protocol.ErrBadRequest, "unknown kind "+om.Kind)
		return
	}
	o := tasks.Order{
		OrderID:        om.OrderID,
		AgentID:        agentID, // trust session identity
		Kind:           kind,
		BackToResource: om.BackToResource,
	}
	if om.Target != nil {
		o.Target = *om.Target
	}
	if !s.world.Submit(o) {
		s.reject(out, om.OrderID, protocol.ErrWorldBusy, "inbox full")
	}
}

func (s *Server) handleEventBatch(ctx context.Context, agentID string, out chan []byte, msg []byte) {
	if s.validator != nil {
		if err := s.validator.Validate(protocol.TypeEventBatchReq, msg); err != nil {
			s.reject(out, "", protocol.ErrProtoBadRequest, err.Error())
			return
		}
	}
	var req protocol.EventBatchReqMsg
	if err := json.Unmarshal(msg, &req); err != nil {
		return
	}
	qctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	resp, err := s.world.RequestEventsAfter(qctx, agentID, req.SinceCursor, req.Limit)
	if err != nil {
		return
	}
	events := resp.Events
	if events == nil {
		events = []protocol.Event{}
	}
	send(out, protocol.EventBatchMsg{
		Type:            protocol.TypeEventBatch,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		Events:          events,
		NextCursor:      resp.NextCursor,
	})
}

func (s *Server) reject(out chan []byte, orderID, code, message string) {
	send(out, protocol.ActionResultMsg{
		Type:            protocol.TypeActionResult,
		ProtocolVersion: protocol.Version,
		OrderID:         orderID,
		Accepted:        false,
		Code:            code,
		Message:         message,
		ServerTick:      s.world.CurrentTick(),
	})
}

func (s *Server) handshake(conn *websocket.Conn) (agentID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}
	if s.validator != nil {
		if err := s.validator.Validate(protocol.TypeHello, msg); err != nil {
			closeWith(conn, "invalid HELLO")
			return "", nil
		}
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan world.JoinResponse, 1)
	s.world.Join() <- world.JoinRequest{
		AgentID: hello.AgentID,
		Out:     out,
		Resp:    respCh,
	}
	resp := <-respCh
	if resp.Code != "" {
		s.log.Printf("hello from %q refused: %s %s", hello.AgentID, resp.Code, resp.Message)
		closeWith(conn, resp.Code)
		return "", nil
	}

	// Send welcome immediately; frames follow through out.
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Leave() <- world.LeaveRequest{AgentID: hello.AgentID, Out: out}
		return "", nil
	}
	return resp.Welcome.AgentID, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

// send queues a reply without blocking the reader; a full queue drops it.
func send(out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
