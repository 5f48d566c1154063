// chatwarden/pkg/store/memory_store.go

package store

import "sync"

// MemoryStore is an in-process Store, used for embedding and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]interface{}
	points map[string]map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]map[string]interface{}),
		points: make(map[string]map[string]int),
	}
}

func (s *MemoryStore) GetData(player, key string) (interface{}, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[player][key]
	return value, ok, nil
}

func (s *MemoryStore) SetData(player, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[player] == nil {
		s.data[player] = make(map[string]interface{})
	}
	s.data[player][key] = value
	return nil
}

func (s *MemoryStore) GetPoints(player, set string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points[player][set], nil
}

func (s *MemoryStore) AddPoints(player, set string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.points[player] == nil {
		s.points[player] = make(map[string]int)
	}
	total := s.points[player][set] + delta
	if total < 0 {
		total = 0
	}
	s.points[player][set] = total
	return total, nil
}

func (s *MemoryStore) AllPoints(player string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := make(map[string]int, len(s.points[player]))
	for set, total := range s.points[player] {
		points[set] = total
	}
	return points, nil
}
