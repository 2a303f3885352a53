package activityapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/nomis52/activityboard/directory"
)

// DiskStore persists the directory to a JSON state file.
type DiskStore struct {
	path   string
	logger *slog.Logger
	dir    directory.Directory // protected by mu
	mu     sync.Mutex
}

// NewDiskStore creates a disk-backed store at path. If the file exists its
// contents are loaded, otherwise the store starts from seed and writes it.
func NewDiskStore(path string, seed directory.Directory, logger *slog.Logger) (*DiskStore, error) {
	s := &DiskStore{
		path:   path,
		logger: logger,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	d, err := s.load()
	switch {
	case err == nil:
		s.dir = d
		logger.Info("loaded activities from disk", "path", path, "activities", d.Len())
	case errors.Is(err, os.ErrNotExist):
		s.dir = seed.Clone()
		if err := s.write(s.dir); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s, nil
}

// Activities returns a copy of the current directory.
func (s *DiskStore) Activities() directory.Directory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Clone()
}

// Signup adds email to the named activity and persists the result.
func (s *DiskStore) Signup(activity, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := signup(s.dir, activity, email)
	if err != nil {
		return err
	}
	return s.commit(d)
}

// Unregister removes email from the named activity and persists the result.
func (s *DiskStore) Unregister(activity, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := unregister(s.dir, activity, email)
	if err != nil {
		return err
	}
	return s.commit(d)
}

// Reload re-reads the state file.
func (s *DiskStore) Reload() error {
	d, err := s.load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = d
	return nil
}

// commit writes d and makes it current. Must be called with mu held.
func (s *DiskStore) commit(d directory.Directory) error {
	if err := s.write(d); err != nil {
		return err
	}
	s.dir = d
	return nil
}

// write replaces the state file via a temporary file in the same directory.
func (s *DiskStore) write(d directory.Directory) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal activities: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".activities-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	s.logger.Debug("saved activities to disk", "path", s.path)
	return nil
}

func (s *DiskStore) load() (directory.Directory, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return directory.Directory{}, err
	}
	d, err := directory.Decode(data)
	if err != nil {
		return directory.Directory{}, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}
	return d, nil
}
