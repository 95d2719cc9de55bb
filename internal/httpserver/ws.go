package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/chadiek/followup-call/internal/agent"
)

var upgrader = websocket.Upgrader{
	// Browser demos connect from any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

// handleStream runs a whole call over one WebSocket connection: greeting on
// connect, one reply frame per utterance frame, then a summary frame once the
// call terminates. A dropped connection discards the call so the orchestrator
// is free for the next caller.
func (s *Server) handleStream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	greeting, err := s.orch.Start()
	if err != nil {
		_ = conn.WriteJSON(outboundFrame{Type: "error", Text: err.Error()})
		return nil
	}
	if err := conn.WriteJSON(outboundFrame{Type: "greeting", Text: greeting}); err != nil {
		s.discardCall()
		return nil
	}

	ctx := c.Request().Context()
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			log.Printf("call stream closed: %v", err)
			s.discardCall()
			return nil
		}

		switch frame.Type {
		case "utterance":
			reply, err := s.orch.SubmitUtterance(ctx, frame.Text)
			if err != nil {
				_ = conn.WriteJSON(outboundFrame{Type: "error", Text: err.Error()})
				continue
			}
			if s.orch.State() == agent.StateTerminating {
				_ = conn.WriteJSON(outboundFrame{Type: "farewell", Text: reply})
				s.finish(conn)
				return nil
			}
			if err := conn.WriteJSON(outboundFrame{Type: "reply", Text: reply}); err != nil {
				s.discardCall()
				return nil
			}
		case "bye":
			s.finish(conn)
			return nil
		default:
			_ = conn.WriteJSON(outboundFrame{Type: "error", Text: "unknown frame type: " + frame.Type})
		}
	}
}

// finish closes out the call and sends the summary to the client.
func (s *Server) finish(conn *websocket.Conn) {
	result, err := s.orch.End()
	if err != nil {
		_ = conn.WriteJSON(outboundFrame{Type: "error", Text: err.Error()})
		return
	}
	_ = conn.WriteJSON(outboundFrame{Type: "summary", Data: result})
}

// discardCall ends whatever call the dropped connection left active.
func (s *Server) discardCall() {
	if _, err := s.orch.End(); err != nil && !errors.Is(err, agent.ErrNoActiveCall) {
		log.Printf("discard call: %v", err)
	}
}
