package nonce

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps nonces in process memory
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]time.Time
}

// Compile-time interface compliance check
var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]time.Time),
	}
}

func (s *MemoryStore) NewID() string {
	return uuid.New().String()
}

func (s *MemoryStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[rec.ID]; ok {
		return ErrDuplicate
	}
	s.data[rec.ID] = rec.Expiration
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.data, id)
	return &Record{ID: id, Expiration: exp}, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, exp := range s.data {
		if !exp.After(now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
