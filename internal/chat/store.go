package chat

import (
	"container/list"
	"sync"
)

// MessageStore keeps past messages so replies can be resolved by id.
type MessageStore interface {
	Record(msg Message) error
	Resolve(id string) (Message, bool)
	Len() int
	Close() error
}

// MemoryStore is a map-backed MessageStore with least-recently-used eviction.
// A limit of zero or less disables eviction.
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	order   *list.List
	entries map[string]*list.Element
}

// NewMemoryStore creates a store holding at most limit messages.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{
		limit:   limit,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Record inserts msg, overwriting any message with the same id.
func (s *MemoryStore) Record(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[msg.ID]; ok {
		el.Value = msg
		s.order.MoveToFront(el)
		return nil
	}

	s.entries[msg.ID] = s.order.PushFront(msg)
	if s.limit > 0 {
		for s.order.Len() > s.limit {
			oldest := s.order.Back()
			s.order.Remove(oldest)
			delete(s.entries, oldest.Value.(Message).ID)
		}
	}
	return nil
}

// Resolve returns the message with the given id and marks it recently used.
func (s *MemoryStore) Resolve(id string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[id]
	if !ok {
		return Message{}, false
	}
	s.order.MoveToFront(el)
	return el.Value.(Message), true
}

// Len returns the number of retained messages.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
