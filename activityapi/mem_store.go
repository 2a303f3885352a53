package activityapi

import (
	"sync"

	"github.com/nomis52/activityboard/directory"
)

// MemoryStore keeps the directory in memory only (no persistence).
type MemoryStore struct {
	dir directory.Directory
	mu  sync.Mutex
}

// NewMemoryStore creates a store holding a copy of d.
func NewMemoryStore(d directory.Directory) *MemoryStore {
	return &MemoryStore{dir: d.Clone()}
}

// Activities returns a copy of the current directory.
func (s *MemoryStore) Activities() directory.Directory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Clone()
}

// Signup adds email to the named activity.
func (s *MemoryStore) Signup(activity, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := signup(s.dir, activity, email)
	if err != nil {
		return err
	}
	s.dir = d
	return nil
}

// Unregister removes email from the named activity.
func (s *MemoryStore) Unregister(activity, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := unregister(s.dir, activity, email)
	if err != nil {
		return err
	}
	s.dir = d
	return nil
}
