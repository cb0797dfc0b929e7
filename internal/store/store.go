package store

import (
	"log"
	"sync"

	"slidecast/pkg/types"
)

// Store is the in-memory presentation registry. State is process-lifetime:
// everything is lost on restart and that is acceptable for this server.
type Store struct {
	mu            sync.RWMutex
	presentations map[int64]*types.Presentation
	order         []int64 // creation order for List
	nextID        int64
}

// NewStore creates an empty presentation store.
func NewStore() *Store {
	return &Store{
		presentations: make(map[int64]*types.Presentation),
	}
}

// Create allocates a presentation with a fresh id and an empty roster.
// IDs are monotonically increasing and never reused, even after a
// presentation's roster drains to empty.
func (s *Store) Create(title, creator string) *types.Presentation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p := &types.Presentation{
		ID:      s.nextID,
		Title:   title,
		Creator: creator,
		Roster:  []types.Participant{},
	}
	s.presentations[p.ID] = p
	s.order = append(s.order, p.ID)

	log.Printf("Created presentation: id=%d title=%q creator=%s", p.ID, p.Title, p.Creator)
	return snapshot(p)
}

// Get returns a copy of the presentation, or false if the id is unknown.
func (s *Store) Get(id int64) (*types.Presentation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.presentations[id]
	if !exists {
		return nil, false
	}
	return snapshot(p), true
}

// Exists reports whether a presentation id is known.
func (s *Store) Exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.presentations[id]
	return exists
}

// List returns copies of all presentations in creation order.
func (s *Store) List() []*types.Presentation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	presentations := make([]*types.Presentation, 0, len(s.order))
	for _, id := range s.order {
		presentations = append(presentations, snapshot(s.presentations[id]))
	}
	return presentations
}

// AddParticipant appends a participant to the roster and returns the updated
// roster. A join against an unknown presentation is a no-op with ok=false:
// the caller must not broadcast in that case.
func (s *Store) AddParticipant(id int64, connectionID, nickname string) ([]types.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.presentations[id]
	if !exists {
		return nil, false
	}

	p.Roster = append(p.Roster, types.Participant{
		ConnectionID: connectionID,
		Nickname:     nickname,
	})
	return rosterCopy(p.Roster), true
}

// RemoveParticipant removes the roster entry matching connectionID and
// returns the updated roster. Removing an absent participant is a no-op;
// ok=false only when the presentation itself is unknown.
func (s *Store) RemoveParticipant(id int64, connectionID string) ([]types.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.presentations[id]
	if !exists {
		return nil, false
	}

	kept := p.Roster[:0]
	for _, member := range p.Roster {
		if member.ConnectionID != connectionID {
			kept = append(kept, member)
		}
	}
	p.Roster = kept
	return rosterCopy(p.Roster), true
}

// Stats returns store counters for the health endpoint.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	participants := 0
	for _, p := range s.presentations {
		participants += len(p.Roster)
	}
	return map[string]int{
		"presentations": len(s.presentations),
		"participants":  participants,
	}
}

// snapshot copies a presentation so callers never share roster backing
// arrays with the store.
func snapshot(p *types.Presentation) *types.Presentation {
	copied := *p
	copied.Roster = rosterCopy(p.Roster)
	return &copied
}

func rosterCopy(roster []types.Participant) []types.Participant {
	out := make([]types.Participant, len(roster))
	copy(out, roster)
	return out
}
