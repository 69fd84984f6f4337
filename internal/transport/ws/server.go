package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"wuphf.social/internal/hub"
	"wuphf.social/internal/protocol"
)

type Server struct {
	hub        *hub.Hub
	log        *log.Logger
	seedDigest string
	recent     func(context.Context) int

	upgrader websocket.Upgrader
}

// NewServer wires the live channel. recent reports the current feed size
// for the WELCOME message and may be nil.
func NewServer(h *hub.Hub, logger *log.Logger, seedDigest string, recent func(context.Context) int) *Server {
	return &Server{
		hub:        h,
		log:        logger,
		seedDigest: seedDigest,
		recent:     recent,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.handshake(conn) {
			return
		}

		connID, out := s.hub.Register()
		if s.log != nil {
			s.log.Printf("client %s connected from %s", connID, r.RemoteAddr)
		}
		defer func() {
			s.hub.Unregister(connID)
			if s.log != nil {
				s.log.Printf("client %s disconnected", connID)
			}
		}()

		welcome := protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			ConnectionID:    connID,
			ServerTime:      time.Now().UTC().Format(time.RFC3339),
			SeedDigest:      s.seedDigest,
		}
		if s.recent != nil {
			welcome.RecentWuphfs = s.recent(r.Context())
		}
		if err := writeJSON(conn, welcome); err != nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine: drains the hub queue for this connection.
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

		// Reader loop. Most clients only listen; the only inbound messages
		// are group membership changes. No read deadline: a silent viewer
		// is a healthy viewer.
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeJoinGroup, protocol.TypeLeaveGroup:
				var gm protocol.GroupMsg
				if err := json.Unmarshal(msg, &gm); err != nil || gm.Group == "" {
					continue
				}
				if base.Type == protocol.TypeJoinGroup {
					s.hub.JoinGroup(connID, gm.Group)
				} else {
					s.hub.LeaveGroup(connID, gm.Group)
				}
			default:
				// Unknown types are ignored, not fatal.
			}
		}
	}
}

// handshake expects a HELLO with a matching protocol version.
func (s *Server) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	_ = conn.SetReadDeadline(time.Time{})
	if err != nil {
		return false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return false
	}
	return true
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
