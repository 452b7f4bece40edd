package service

import (
	"sync/atomic"

	"neohub_monitor/internal/models"
)

// State is what the last committed cycle produced. It is never mutated after
// it has been stored; readers may hold on to it.
type State struct {
	Snapshot  models.Snapshot
	Open      []models.Alert
	LastCycle *models.CycleReport
}

// StateStore publishes State by pointer swap. The poller is the only writer.
type StateStore struct {
	p atomic.Pointer[State]
}

func NewStateStore() *StateStore {
	s := &StateStore{}
	s.p.Store(&State{})
	return s
}

func (s *StateStore) Load() *State { return s.p.Load() }

func (s *StateStore) Store(st *State) { s.p.Store(st) }

// WithCycle stores a copy of the current state carrying only a new cycle report.
func (s *StateStore) WithCycle(r models.CycleReport) {
	cur := s.Load()
	next := *cur
	next.LastCycle = &r
	s.Store(&next)
}
