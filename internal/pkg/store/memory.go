package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
)

type memoryKey struct {
	day    string
	entity model.Entity
}

// Memory is an in-process Observation store with the same insert-if-absent
// semantics as Postgres. Used for seeded deployments and tests.
type Memory struct {
	mu   sync.RWMutex
	rows map[memoryKey]model.Observation
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[memoryKey]model.Observation)}
}

func (s *Memory) UpsertObservation(_ context.Context, obs model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{day: obs.Date.String(), entity: obs.Entity}
	if _, exists := s.rows[key]; exists {
		return nil // first write wins
	}
	s.rows[key] = obs
	return nil
}

func (s *Memory) ListObservations(_ context.Context) ([]model.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Observation, 0, len(s.rows))
	for _, obs := range s.rows {
		out = append(out, obs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Entity < out[j].Entity
	})
	return out, nil
}

// Len reports the number of stored observations.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
