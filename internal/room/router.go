package room

import (
	"encoding/json"
	"log"
	"sync"

	"slidecast/pkg/types"
)

// Sender is the delivery surface the router needs from a connection.
// Send must not block on a slow peer; the websocket wrapper enqueues to a
// bounded buffer and reports overflow as an error.
type Sender interface {
	ID() string
	Send(data []byte) error
}

// Router is the broadcast primitive: it tracks which connections are
// subscribed to which presentation and fans events out to them.
type Router struct {
	mu      sync.Mutex
	rooms   map[int64]map[string]Sender // presentationID -> connectionID -> Sender
	current map[string]int64            // connectionID -> subscribed presentationID
}

// NewRouter creates an empty room router.
func NewRouter() *Router {
	return &Router{
		rooms:   make(map[int64]map[string]Sender),
		current: make(map[string]int64),
	}
}

// Subscribe adds conn to the delivery set for presentationID. A connection
// is subscribed to at most one room: any prior subscription is dropped
// first, so a re-join can never leave a connection in two delivery sets.
func (r *Router) Subscribe(conn Sender, presentationID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID := conn.ID()
	if prior, subscribed := r.current[connID]; subscribed && prior != presentationID {
		r.dropLocked(connID, prior)
	}

	if r.rooms[presentationID] == nil {
		r.rooms[presentationID] = make(map[string]Sender)
	}
	r.rooms[presentationID][connID] = conn
	r.current[connID] = presentationID
}

// Unsubscribe removes the connection from the delivery set. Idempotent.
func (r *Router) Unsubscribe(connectionID string, presentationID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, subscribed := r.current[connectionID]; !subscribed || current != presentationID {
		return
	}
	r.dropLocked(connectionID, presentationID)
	delete(r.current, connectionID)
}

// Broadcast delivers an event to every connection currently subscribed to
// presentationID. The lock is held across the fan-out so successive
// broadcasts to one room reach every subscriber in the same order. Delivery
// to an individual failed connection is logged and skipped; it never aborts
// the rest of the room.
func (r *Router) Broadcast(presentationID int64, event string, payload interface{}) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		log.Printf("Failed to encode %s broadcast for presentation %d: %v", event, presentationID, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	subscribers, exists := r.rooms[presentationID]
	if !exists {
		return
	}
	for connID, conn := range subscribers {
		if err := conn.Send(data); err != nil {
			log.Printf("Failed to deliver %s to connection %s: %v", event, connID, err)
		}
	}
}

// Stats returns router counters for the health endpoint.
func (r *Router) Stats() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[string]int{
		"rooms":       len(r.rooms),
		"subscribers": len(r.current),
	}
}

// dropLocked removes a connection from a room's delivery set and cleans up
// the room map once empty. Caller holds r.mu.
func (r *Router) dropLocked(connectionID string, presentationID int64) {
	subscribers, exists := r.rooms[presentationID]
	if !exists {
		return
	}
	delete(subscribers, connectionID)
	if len(subscribers) == 0 {
		delete(r.rooms, presentationID)
	}
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(types.Envelope{Event: event, Data: data})
}
