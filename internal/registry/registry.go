package registry

import "sync"

// Association records which presentation a connection currently belongs to
// and the nickname it presented when joining. It is a reference only; the
// roster entry itself is owned by the presentation store.
type Association struct {
	PresentationID int64
	Nickname       string
}

// Registry maps live connection ids to their current association. It exists
// so a disconnect can resolve "which roster do I clean up" without scanning
// every presentation.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Association
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Association),
	}
}

// Associate records or overwrites the association for connectionID and
// returns the prior association, if any. Callers overwriting an existing
// association must first run the leave sequence for the prior presentation
// so the connection is never listed in two rosters.
func (r *Registry) Associate(connectionID string, presentationID int64, nickname string) (Association, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior, existed := r.conns[connectionID]
	r.conns[connectionID] = Association{
		PresentationID: presentationID,
		Nickname:       nickname,
	}
	return prior, existed
}

// Lookup returns the current association for connectionID.
func (r *Registry) Lookup(connectionID string) (Association, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assoc, exists := r.conns[connectionID]
	return assoc, exists
}

// Remove drops the association for connectionID. Idempotent.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connectionID)
}

// Count returns the number of associated connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
