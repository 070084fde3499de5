package server

import (
	"sync"

	"github.com/corraldb/corral/api"
)

// store is the in-memory record store backing the reference server.
// Records keep their insertion order per resource so unordered queries
// and offset paging stay stable across requests.
type store struct {
	mu      sync.RWMutex
	records map[string]map[string]api.Record
	order   map[string][]string
}

func newStore() *store {
	return &store{
		records: make(map[string]map[string]api.Record),
		order:   make(map[string][]string),
	}
}

func (s *store) get(resource, id string) (api.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[resource][id]
	return rec, ok
}

func (s *store) put(resource, id string, rec api.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[resource] == nil {
		s.records[resource] = make(map[string]api.Record)
	}
	if _, exists := s.records[resource][id]; !exists {
		s.order[resource] = append(s.order[resource], id)
	}
	s.records[resource][id] = rec
}

func (s *store) delete(resource, id string) (api.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[resource][id]
	if !ok {
		return nil, false
	}
	delete(s.records[resource], id)
	ids := s.order[resource]
	for i, v := range ids {
		if v == id {
			s.order[resource] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return rec, true
}

// list returns a snapshot of the resource's records in insertion
// order.
func (s *store) list(resource string) []api.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Record, 0, len(s.order[resource]))
	for _, id := range s.order[resource] {
		out = append(out, s.records[resource][id])
	}
	return out
}
