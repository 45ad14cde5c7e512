package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/routestate/pkg/route"
	"github.com/vango-dev/routestate/pkg/router"
)

// Feed message types.
const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)

// FeedMessage is sent to websocket clients. Snapshot messages carry the
// URL and state; error messages answer a rejected command.
type FeedMessage struct {
	Type string `json:"type"`
	*router.Snapshot
	Error string `json:"error,omitempty"`
}

// FeedCommand is sent by websocket clients to import a URL or a state.
// Exactly one field should be set.
type FeedCommand struct {
	URL   *string      `json:"url,omitempty"`
	State *route.State `json:"state,omitempty"`
}

type feedClient struct {
	id     string
	conn   *websocket.Conn
	send   chan FeedMessage
	done   chan struct{}
	once   sync.Once
	server *Server
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue queues msg without blocking. A client whose queue is full is
// disconnected.
func (c *feedClient) enqueue(msg FeedMessage) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		c.server.logger.Warn("feed client too slow, disconnecting", "client", c.id)
		if c.server.metrics != nil {
			c.server.metrics.RecordWebSocketError("slow_client")
		}
		c.close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		if s.metrics != nil {
			s.metrics.RecordWebSocketError("upgrade")
		}
		return
	}

	c := &feedClient{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan FeedMessage, s.config.FeedBuffer+1),
		done:   make(chan struct{}),
		server: s,
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordClientConnect()
	}
	s.logger.Info("feed client connected", "client", c.id, "remote", r.RemoteAddr)

	// Subscribe before reading the current snapshot so no change is missed.
	cancel := s.router.Subscribe(func(snap router.Snapshot) {
		c.enqueue(FeedMessage{Type: MessageSnapshot, Snapshot: &snap})
	})
	current := s.router.Snapshot()
	c.enqueue(FeedMessage{Type: MessageSnapshot, Snapshot: &current})

	go s.writeLoop(c)
	s.readLoop(c)

	cancel()
	c.close()
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordClientDisconnect()
	}
	s.logger.Info("feed client disconnected", "client", c.id)
}

// readLoop applies commands from the client until the connection closes.
func (s *Server) readLoop(c *feedClient) {
	c.conn.SetReadDeadline(time.Now().Add(2 * s.config.PingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.config.PingInterval))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("feed read error", "client", c.id, "error", err)
				if s.metrics != nil {
					s.metrics.RecordWebSocketError("read")
				}
			}
			return
		}

		var cmd FeedCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.enqueue(FeedMessage{Type: MessageError, Error: "invalid command: " + err.Error()})
			continue
		}
		switch {
		case cmd.URL != nil:
			s.router.SetURL(*cmd.URL)
		case cmd.State != nil:
			if _, err := s.router.SetState(cmd.State); err != nil {
				c.enqueue(FeedMessage{Type: MessageError, Error: err.Error()})
			}
		default:
			c.enqueue(FeedMessage{Type: MessageError, Error: "command needs url or state"})
		}
	}
}

// writeLoop sends queued messages and keepalive pings.
func (s *Server) writeLoop(c *feedClient) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("feed write error", "client", c.id, "error", err)
				if s.metrics != nil {
					s.metrics.RecordWebSocketError("write")
				}
				c.close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
