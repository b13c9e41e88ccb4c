package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/scene"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SessionRequest is a pointer event or command sent by the client.
//
//	press, drag, release, move: X/Y is the pointer position
//	corners: Corners replaces all four destination corners
//	reset, state: no payload
type SessionRequest struct {
	Type    string             `json:"type"`
	X       float64            `json:"x"`
	Y       float64            `json:"y"`
	Corners []homography.Point `json:"corners,omitempty"`
}

// SessionResponse is either the scene state or an error.
type SessionResponse struct {
	Type      string       `json:"type"` // "state" or "error"
	State     *scene.State `json:"state,omitempty"`
	Error     string       `json:"error,omitempty"`
	ErrorType string       `json:"error_type,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// sessionHandler upgrades the connection and runs one Scene for its lifetime.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.log.Info("scene session started", "remote_addr", r.RemoteAddr)
	s.handleSession(conn, s.newScene())
	s.log.Info("scene session ended", "remote_addr", r.RemoteAddr)
}

func (s *Server) newScene() *scene.Scene {
	opts := append([]scene.Option{scene.WithLogger(s.log)}, s.sceneOpts...)
	return scene.New(s.sceneWidth, s.sceneHeight, opts...)
}

// handleSession reads events until the client goes away. The initial state
// is sent before the first read.
func (s *Server) handleSession(conn *websocket.Conn, sc *scene.Scene) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	s.sendState(conn, sc)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleSessionMessage(conn, sc, data)
		}
	}
}

// handleSessionMessage applies one event to sc and replies with the new state.
func (s *Server) handleSessionMessage(conn WebSocketConnWriter, sc *scene.Scene, data []byte) {
	var req SessionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendSessionError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	p := homography.Pt(req.X, req.Y)
	var err error
	switch req.Type {
	case "press":
		sc.PointerPressed(p)
	case "drag":
		err = sc.PointerDragged(p)
	case "release":
		err = sc.PointerReleased(p)
	case "move":
		sc.PointerMoved(p)
	case "corners":
		if len(req.Corners) != 4 {
			s.sendSessionError(conn, "invalid_request", fmt.Sprintf("corners: need 4 points, got %d", len(req.Corners)))
			return
		}
		err = sc.SetCorners([4]homography.Point(req.Corners))
	case "reset":
		sc.Reset()
	case "state":
	default:
		s.sendSessionError(conn, "invalid_request", "Unsupported message type: "+req.Type)
		return
	}

	if err != nil {
		estimateTotal.WithLabelValues("session", errorType(err)).Inc()
		s.sendSessionError(conn, errorType(err), err.Error())
		return
	}
	s.sendState(conn, sc)
}

func (s *Server) sendState(conn WebSocketConnWriter, sc *scene.Scene) {
	st := sc.Snapshot()
	s.sendSessionResponse(conn, SessionResponse{Type: "state", State: &st})
}

func (s *Server) sendSessionError(conn WebSocketConnWriter, errType, message string) {
	s.sendSessionResponse(conn, SessionResponse{Type: "error", Error: message, ErrorType: errType})
}

// sendSessionResponse sends a response message over WebSocket.
func (s *Server) sendSessionResponse(conn WebSocketConnWriter, response SessionResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.log.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.log.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
