package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"slidecast/internal/protocol"
	"slidecast/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origins are enforced by the HTTP CORS layer; the socket endpoint
		// accepts any origin so local dev clients can connect directly.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Options tunes connection behavior; zero values fall back to defaults.
type Options struct {
	PingInterval    time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	WriteBufferSize int
}

// Handler upgrades HTTP requests to websocket connections and pumps inbound
// frames into the protocol hub. It holds no session state itself: every
// event, including the implicit disconnect, goes through the hub queue.
type Handler struct {
	hub  *protocol.Hub
	opts Options
}

// NewHandler creates a websocket handler feeding the given hub.
func NewHandler(hub *protocol.Hub, opts Options) *Handler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	return &Handler{hub: hub, opts: opts}
}

// HandleWebSocket is the /ws endpoint.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn, h.opts.WriteBufferSize, h.opts.WriteTimeout)
	log.Printf("Connection opened: %s", wsConn.ID())
	go h.readPump(wsConn)
}

// readPump reads frames until the connection dies, forwarding each decoded
// envelope to the hub. On exit it queues the disconnect event so roster
// cleanup happens in order with the frames that preceded it.
func (h *Handler) readPump(c *Connection) {
	defer func() {
		if err := h.hub.Disconnect(c); err != nil {
			log.Printf("Failed to queue disconnect for %s: %v", c.ID(), err)
		}
		_ = c.Close()
		log.Printf("Connection closed: %s", c.ID())
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.opts.PingInterval)); err != nil {
					return
				}
			case <-c.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("Read error on connection %s: %v", c.ID(), err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var env types.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("Malformed frame from connection %s: %v", c.ID(), err)
			continue
		}
		if err := h.hub.Dispatch(c, env.Event, env.Data); err != nil {
			log.Printf("Dropping %s from connection %s: %v", env.Event, c.ID(), err)
		}
	}
}
