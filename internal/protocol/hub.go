package protocol

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"slidecast/internal/registry"
	"slidecast/internal/room"
	"slidecast/internal/store"
	"slidecast/pkg/types"
)

// disconnect is an internal event name: the transport queues it when a
// connection closes, so cleanup is ordered with the events that preceded it.
const eventDisconnect = "disconnect"

// event is one unit of work on the hub queue.
type event struct {
	conn room.Sender
	name string
	data json.RawMessage
}

// Hub is the session protocol handler. It consumes events from a queue and
// processes them one at a time on a single goroutine, which serializes every
// roster and registry mutation: a join and a concurrent disconnect for the
// same connection can never act on stale state.
type Hub struct {
	events   chan event
	shutdown chan struct{}

	store    *store.Store
	registry *registry.Registry
	rooms    *room.Router

	running bool
	mu      sync.RWMutex
}

// NewHub creates a protocol hub over the given store, registry and router.
// queueSize bounds the event backlog; Dispatch fails rather than blocks when
// the queue is full.
func NewHub(st *store.Store, reg *registry.Registry, rooms *room.Router, queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Hub{
		events:   make(chan event, queueSize),
		shutdown: make(chan struct{}),
		store:    st,
		registry: reg,
		rooms:    rooms,
	}
}

// Start begins event processing.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrHubAlreadyRunning
	}
	h.running = true
	h.mu.Unlock()

	log.Println("Starting protocol hub...")
	go h.run(ctx)
	return nil
}

// Stop shuts down event processing. Events still queued are dropped.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return ErrHubNotRunning
	}
	h.running = false

	select {
	case <-h.shutdown:
	default:
		close(h.shutdown)
	}
	return nil
}

// Dispatch queues an inbound event from a connection. Unknown event names
// are queued and dropped during processing so ordering with known events is
// preserved.
func (h *Hub) Dispatch(conn room.Sender, name string, data json.RawMessage) error {
	return h.enqueue(event{conn: conn, name: name, data: data})
}

// Disconnect queues the implicit disconnect signal for a closed connection.
func (h *Hub) Disconnect(conn room.Sender) error {
	return h.enqueue(event{conn: conn, name: eventDisconnect})
}

func (h *Hub) enqueue(ev event) error {
	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrHubNotRunning
	}
	h.mu.RUnlock()

	select {
	case h.events <- ev:
		return nil
	default:
		return ErrEventQueueFull
	}
}

func (h *Hub) run(ctx context.Context) {
	defer log.Println("Protocol hub stopped")

	for {
		select {
		case ev := <-h.events:
			h.process(ev)
		case <-h.shutdown:
			return
		case <-ctx.Done():
			return
		}
	}
}

// process applies one event to the session state. Referential misses
// (unknown presentation) and association misses (event from a connection not
// in the expected room) are dropped silently: the relay stays up regardless
// of stale client state.
func (h *Hub) process(ev event) {
	switch ev.name {
	case types.EventJoinPresentation:
		h.handleJoin(ev)
	case types.EventAddText:
		h.handleAddText(ev)
	case types.EventDraw:
		h.handleDraw(ev)
	case eventDisconnect:
		h.handleDisconnect(ev)
	default:
		log.Printf("Dropping unknown event %q from connection %s", ev.name, ev.conn.ID())
	}
}

func (h *Hub) handleJoin(ev event) {
	var req types.JoinRequest
	if err := json.Unmarshal(ev.data, &req); err != nil {
		log.Printf("Invalid join payload from connection %s: %v", ev.conn.ID(), err)
		return
	}

	// Joining a presentation that does not exist is a silent no-op; the
	// connection keeps its current association, if any.
	if !h.store.Exists(req.PresentationID) {
		return
	}

	connID := ev.conn.ID()
	if prior, associated := h.registry.Lookup(connID); associated {
		if prior.PresentationID != req.PresentationID {
			// Re-join without leaving: normalize by running the full leave
			// sequence for the old room so the connection ends up in exactly
			// one roster.
			h.leave(connID, prior.PresentationID)
		} else {
			// Same room again: replace the existing roster entry without a
			// user-left broadcast.
			h.store.RemoveParticipant(req.PresentationID, connID)
		}
	}

	h.registry.Associate(connID, req.PresentationID, req.Nickname)
	h.rooms.Subscribe(ev.conn, req.PresentationID)

	roster, ok := h.store.AddParticipant(req.PresentationID, connID, req.Nickname)
	if !ok {
		return
	}
	log.Printf("Participant joined: presentation=%d connection=%s nickname=%q", req.PresentationID, connID, req.Nickname)
	h.rooms.Broadcast(req.PresentationID, types.EventUserJoined, roster)
}

func (h *Hub) handleAddText(ev event) {
	var req types.AddTextRequest
	if err := json.Unmarshal(ev.data, &req); err != nil {
		log.Printf("Invalid add-text payload from connection %s: %v", ev.conn.ID(), err)
		return
	}

	// Content events must target the sender's current room; anything else
	// (not joined, or a stale presentation id) is dropped. The payload is
	// forwarded unmodified and the sender receives its own broadcast.
	if !h.senderInRoom(ev.conn.ID(), req.PresentationID) {
		return
	}
	h.rooms.Broadcast(req.PresentationID, types.EventTextAdded, req.TextData)
}

func (h *Hub) handleDraw(ev event) {
	var req types.DrawRequest
	if err := json.Unmarshal(ev.data, &req); err != nil {
		log.Printf("Invalid draw payload from connection %s: %v", ev.conn.ID(), err)
		return
	}

	if !h.senderInRoom(ev.conn.ID(), req.PresentationID) {
		return
	}
	h.rooms.Broadcast(req.PresentationID, types.EventDraw, req.DrawingData)
}

func (h *Hub) handleDisconnect(ev event) {
	connID := ev.conn.ID()
	if assoc, associated := h.registry.Lookup(connID); associated {
		h.leave(connID, assoc.PresentationID)
	}
	// Always drop the association; a second disconnect for the same
	// connection finds nothing and is a no-op.
	h.registry.Remove(connID)
}

// leave runs the leave sequence for one connection: unsubscribe from the
// room, remove the roster entry, and tell the remaining room who is left.
func (h *Hub) leave(connectionID string, presentationID int64) {
	h.rooms.Unsubscribe(connectionID, presentationID)
	roster, ok := h.store.RemoveParticipant(presentationID, connectionID)
	if !ok {
		return
	}
	log.Printf("Participant left: presentation=%d connection=%s", presentationID, connectionID)
	h.rooms.Broadcast(presentationID, types.EventUserLeft, roster)
}

func (h *Hub) senderInRoom(connectionID string, presentationID int64) bool {
	assoc, associated := h.registry.Lookup(connectionID)
	return associated && assoc.PresentationID == presentationID
}
