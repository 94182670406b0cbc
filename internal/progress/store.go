// Package progress tracks per-problem completion and notes.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/problem-browser/internal/models"
	"github.com/terra-clan/problem-browser/internal/storage"
)

// ErrStorage marks a failed durable read or write
var ErrStorage = errors.New("progress storage failure")

// Store is the in-memory progress map mirrored to a storage backend. The
// whole map is loaded once and written back in full after every update.
type Store struct {
	backend storage.Backend
	now     func() time.Time

	mu        sync.RWMutex
	entries   models.ProgressMap
	listeners []func(key string, p models.Progress)
}

// Open loads the persisted map. A missing, unreadable or corrupt document
// yields an empty store.
func Open(ctx context.Context, backend storage.Backend) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		entries: make(models.ProgressMap),
	}

	data, err := backend.Load(ctx)
	if err != nil {
		slog.Error("failed to load progress, starting empty", "error", err)
		return s
	}
	if len(data) == 0 {
		return s
	}

	var loaded models.ProgressMap
	if err := json.Unmarshal(data, &loaded); err != nil {
		slog.Error("corrupt progress document, starting empty", "error", err)
		return s
	}
	if loaded != nil {
		s.entries = loaded
	}

	slog.Info("progress loaded", "entries", len(s.entries))
	return s
}

// Subscribe registers fn to be called after every update
func (s *Store) Subscribe(fn func(key string, p models.Progress)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Get returns the stored record or the default {done:false, notes:""}
func (s *Store) Get(contestID int, index string) models.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[models.ProgressKey(contestID, index)]
}

// Update merges upd over the current value, stamps updatedAt and persists
// the whole map. If persisting fails the in-memory change is kept and an
// error wrapping ErrStorage is returned alongside the new value.
func (s *Store) Update(ctx context.Context, contestID int, index string, upd models.ProgressUpdate) (models.Progress, error) {
	key := models.ProgressKey(contestID, index)

	s.mu.Lock()
	p := s.entries[key]
	if upd.Done != nil {
		p.Done = *upd.Done
	}
	if upd.Notes != nil {
		p.Notes = *upd.Notes
	}
	p.UpdatedAt = s.now().UnixMilli()
	s.entries[key] = p

	saveErr := s.saveLocked(ctx)
	listeners := append([]func(string, models.Progress){}, s.listeners...)
	s.mu.Unlock()

	if saveErr != nil {
		slog.Error("failed to save progress", "key", key, "error", saveErr)
	}

	for _, fn := range listeners {
		fn(key, p)
	}
	return p, saveErr
}

// SetDone sets the done flag of a problem
func (s *Store) SetDone(ctx context.Context, contestID int, index string, done bool) (models.Progress, error) {
	return s.Update(ctx, contestID, index, models.ProgressUpdate{Done: &done})
}

// SetNotes replaces the notes of a problem
func (s *Store) SetNotes(ctx context.Context, contestID int, index string, notes string) (models.Progress, error) {
	return s.Update(ctx, contestID, index, models.ProgressUpdate{Notes: &notes})
}

// DoneCount counts the problems marked done
func (s *Store) DoneCount(problems []models.Problem) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range problems {
		if s.entries[p.Key()].Done {
			n++
		}
	}
	return n
}

// All returns a copy of the progress map
func (s *Store) All() models.ProgressMap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(models.ProgressMap, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Ping checks the backend
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close closes the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) saveLocked(ctx context.Context) error {
	data, err := Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Marshal encodes a progress map. Keys are emitted sorted so the encoding is
// stable across round trips.
func Marshal(m models.ProgressMap) ([]byte, error) {
	if m == nil {
		m = models.ProgressMap{}
	}
	return json.Marshal(m)
}
