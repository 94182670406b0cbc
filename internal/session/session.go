// Package session holds per-client browsing state and exposes it to the
// rendering layer through the Controller capability.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/terra-clan/problem-browser/internal/browse"
	"github.com/terra-clan/problem-browser/internal/models"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrInvalidViewMode = errors.New("invalid view mode")
	ErrStillActive     = errors.New("session is no longer idle")
)

// Catalog is the source of the joined problem list
type Catalog interface {
	Problems() []models.Problem
	Snapshot() models.CatalogSnapshot
}

// ProgressStore reads and writes per-problem progress
type ProgressStore interface {
	Get(contestID int, index string) models.Progress
	SetDone(ctx context.Context, contestID int, index string, done bool) (models.Progress, error)
	SetNotes(ctx context.Context, contestID int, index string, notes string) (models.Progress, error)
	Update(ctx context.Context, contestID int, index string, upd models.ProgressUpdate) (models.Progress, error)
}

// Controller is what the rendering layer may do to a session. Each method
// maps to one filter/sort engine or progress store operation.
type Controller interface {
	ToggleDivision(d models.Division)
	ToggleIndex(index string)
	SetSortOrder(o models.SortOrder) error
	SetViewMode(m models.ViewMode) error
	SetDone(ctx context.Context, contestID int, index string, done bool) (models.Progress, error)
	SetNotes(ctx context.Context, contestID int, index string, notes string) (models.Progress, error)
	UpdateProgress(ctx context.Context, contestID int, index string, upd models.ProgressUpdate) (models.Progress, error)
	View() models.View
}

// Session is the transient filter state and view mode of one client
type Session struct {
	id        string
	createdAt time.Time
	catalog   Catalog
	progress  ProgressStore
	now       func() time.Time
	onChange  func(id string)

	mu       sync.RWMutex
	filters  models.FilterState
	viewMode models.ViewMode
	lastSeen time.Time
}

var _ Controller = (*Session)(nil)

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Info describes the session
func (s *Session) Info() models.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SessionInfo{ID: s.id, CreatedAt: s.createdAt, LastSeen: s.lastSeen}
}

// Filters returns the current filter state
func (s *Session) Filters() models.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// ToggleDivision adds or removes a division from the selection
func (s *Session) ToggleDivision(d models.Division) {
	s.mutate(func() { s.filters = browse.ToggleDivision(s.filters, d) })
}

// ToggleIndex adds or removes a problem index from the selection
func (s *Session) ToggleIndex(index string) {
	s.mutate(func() { s.filters = browse.ToggleIndex(s.filters, index) })
}

// SetSortOrder changes the date ordering
func (s *Session) SetSortOrder(o models.SortOrder) error {
	f, err := browse.WithSortOrder(s.Filters(), o)
	if err != nil {
		return err
	}
	s.mutate(func() { s.filters.SortOrder = f.SortOrder })
	return nil
}

// SetViewMode switches between list and card layout
func (s *Session) SetViewMode(m models.ViewMode) error {
	if !m.Valid() {
		return ErrInvalidViewMode
	}
	s.mutate(func() { s.viewMode = m })
	return nil
}

// ApplyPreset replaces the filters and view mode in one change
func (s *Session) ApplyPreset(p models.Preset) error {
	if !p.Filters.SortOrder.Valid() {
		return browse.ErrInvalidSortOrder
	}
	if !p.ViewMode.Valid() {
		return ErrInvalidViewMode
	}
	filters := models.FilterState{
		Divisions: slices.Clone(p.Filters.Divisions),
		Indices:   slices.Clone(p.Filters.Indices),
		SortOrder: p.Filters.SortOrder,
	}
	s.mutate(func() {
		s.filters = filters
		s.viewMode = p.ViewMode
	})
	return nil
}

// SetDone marks a problem done or not done
func (s *Session) SetDone(ctx context.Context, contestID int, index string, done bool) (models.Progress, error) {
	s.touch()
	return s.progress.SetDone(ctx, contestID, index, done)
}

// SetNotes replaces the notes of a problem
func (s *Session) SetNotes(ctx context.Context, contestID int, index string, notes string) (models.Progress, error) {
	s.touch()
	return s.progress.SetNotes(ctx, contestID, index, notes)
}

// UpdateProgress merges upd into a problem's progress in a single write
func (s *Session) UpdateProgress(ctx context.Context, contestID int, index string, upd models.ProgressUpdate) (models.Progress, error) {
	s.touch()
	return s.progress.Update(ctx, contestID, index, upd)
}

// View recomputes the display list from the catalog and the current filters
func (s *Session) View() models.View {
	s.mu.RLock()
	filters := s.filters
	mode := s.viewMode
	s.mu.RUnlock()

	problems := browse.Apply(s.catalog.Problems(), filters)
	entries, done := browse.Annotate(problems, s.progress)

	return models.View{
		SessionID: s.id,
		Filters:   filters,
		ViewMode:  mode,
		Catalog:   s.catalog.Snapshot(),
		Entries:   entries,
		Total:     len(entries),
		Done:      done,
	}
}

func (s *Session) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.lastSeen = s.now()
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(s.id)
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastSeen)
}
