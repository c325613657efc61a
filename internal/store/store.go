// Package store keeps uploaded datasets on disk for the lifetime of one
// validation session. Entries expire after a TTL; a background sweeper
// reclaims disk space.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"csvcert/pkg/contracts/domain"
)

// ErrNotFound is returned for unknown or expired file IDs.
var ErrNotFound = errors.New("file not found")

// Entry is the stored metadata for one upload. The validation outcome is
// attached after the first validate call so the error report can be
// downloaded without revalidating.
type Entry struct {
	ID              string
	Path            string
	Filename        string
	Columns         []string
	RowCount        int
	Delimiter       rune
	Encoding        string
	Mapping         domain.ColumnMapping
	RequiredColumns []string
	Regulation      string
	CreatedAt       time.Time

	Report *domain.ValidationReport
}

// Store is a disk-backed upload registry, safe for concurrent use.
type Store struct {
	dir    string
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// New creates the storage directory if needed.
func New(dir string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{
		dir:     dir,
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "upload_store")),
		entries: make(map[string]*Entry),
		now:     time.Now,
	}, nil
}

// Save persists the raw upload and registers its metadata under a fresh ID.
func (s *Store) Save(data []byte, entry Entry) (*Entry, error) {
	entry.ID = uuid.New().String()
	entry.Path = filepath.Join(s.dir, entry.ID+".dat")
	entry.CreatedAt = s.now()

	if err := os.WriteFile(entry.Path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	s.mu.Lock()
	s.entries[entry.ID] = &entry
	s.mu.Unlock()

	s.logger.Debug("upload stored",
		slog.String("file_id", entry.ID),
		slog.Int("rows", entry.RowCount),
		slog.Int("bytes", len(data)))
	return &entry, nil
}

// Get returns a copy of the entry's metadata.
func (s *Store) Get(id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := *entry
	return &copied, nil
}

// ReadFile returns the stored raw bytes.
func (s *Store) ReadFile(id string) ([]byte, error) {
	entry, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", id, err)
	}
	return data, nil
}

// SetValidation records the parameters and outcome of a validate call.
func (s *Store) SetValidation(id string, required []string, mapping domain.ColumnMapping, regulationCode string, report *domain.ValidationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	entry.RequiredColumns = required
	entry.Mapping = mapping
	entry.Regulation = regulationCode
	entry.Report = report
	return nil
}

// Delete removes an entry and its file.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload %s: %w", id, err)
	}
	return nil
}

// Sweep drops every entry older than the TTL and returns how many were
// removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Entry
	for id, entry := range s.entries {
		if entry.CreatedAt.Before(cutoff) {
			expired = append(expired, entry)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, entry := range expired {
		if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove expired upload",
				slog.String("file_id", entry.ID),
				slog.String("error", err.Error()))
		}
	}

	if len(expired) > 0 {
		s.logger.Info("swept expired uploads", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// StartSweeper runs Sweep on the given interval until the context ends.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
