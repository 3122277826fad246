package creds

import "sync"

// MemoryStore keeps the pair in process memory. It does not survive a
// restart; intended for tests and throwaway sessions.
type MemoryStore struct {
	mu   sync.Mutex
	pair Pair
	set  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(p Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = p
	s.set = true
	return nil
}

func (s *MemoryStore) Load() (Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Pair{}, nil
	}
	return s.pair, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = Pair{}
	s.set = false
	return nil
}
