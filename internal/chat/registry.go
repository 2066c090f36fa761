package chat

import (
	"sort"
	"sync"
	"time"
)

// Participant is the identity bound to a connection after it joins.
type Participant struct {
	ConnectionID string
	Username     string
	Color        string
	JoinedAt     time.Time
}

// SessionRegistry maps connection ids to participants and owns their lifecycle.
// Colors are acquired and released while the registry lock is held, so the
// pool and the participant map always change together.
type SessionRegistry struct {
	mu           sync.RWMutex
	participants map[string]Participant
	colors       *ColorAllocator
	now          func() time.Time
}

// NewSessionRegistry creates an empty registry drawing colors from colors.
func NewSessionRegistry(colors *ColorAllocator) *SessionRegistry {
	return &SessionRegistry{
		participants: make(map[string]Participant),
		colors:       colors,
		now:          time.Now,
	}
}

// Register binds username to connectionID with a freshly acquired color.
// A stale participant on the same connection is replaced and its color released.
func (r *SessionRegistry) Register(connectionID, username string) Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stale, ok := r.participants[connectionID]; ok {
		r.colors.Release(stale.Color)
	}

	p := Participant{
		ConnectionID: connectionID,
		Username:     username,
		Color:        r.colors.Acquire(),
		JoinedAt:     r.now(),
	}
	r.participants[connectionID] = p
	return p
}

// Lookup returns the participant bound to connectionID, if any.
func (r *SessionRegistry) Lookup(connectionID string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[connectionID]
	return p, ok
}

// Unregister removes the participant and releases its color. It is safe to
// call more than once; later calls report false.
func (r *SessionRegistry) Unregister(connectionID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connectionID]
	if !ok {
		return Participant{}, false
	}
	delete(r.participants, connectionID)
	r.colors.Release(p.Color)
	return p, true
}

// Count returns the number of joined participants.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// Participants returns a snapshot ordered by join time.
func (r *SessionRegistry) Participants() []Participant {
	r.mu.RLock()
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ConnectionID < out[j].ConnectionID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}
