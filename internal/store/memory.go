package store

import (
	"context"
	"sync"

	"echoday/internal/model"
)

// MemoryStore is an in-memory TaskStore. It backs tests and guest sessions
// that have no database file.
type MemoryStore struct {
	mu      sync.Mutex
	tasks   map[string][]model.Task
	notes   map[string][]model.Note
	archive map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:   make(map[string][]model.Task),
		notes:   make(map[string][]model.Note),
		archive: make(map[string]string),
	}
}

func (s *MemoryStore) GetTasks(_ context.Context, userID string) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneTasks(s.tasks[userID]), nil
}

func (s *MemoryStore) SetTasks(_ context.Context, userID string, tasks []model.Task) error {
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[userID] = model.CloneTasks(tasks)
	return nil
}

func (s *MemoryStore) GetNotes(_ context.Context, userID string) ([]model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Note, len(s.notes[userID]))
	copy(out, s.notes[userID])
	return out, nil
}

func (s *MemoryStore) SetNotes(_ context.Context, userID string, notes []model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]model.Note, len(notes))
	copy(stored, notes)
	s.notes[userID] = stored
	return nil
}

func (s *MemoryStore) LastArchiveDate(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archive[userID], nil
}

func (s *MemoryStore) SetLastArchiveDate(_ context.Context, userID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archive[userID] = date
	return nil
}
