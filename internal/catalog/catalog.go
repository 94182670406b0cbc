// Package catalog owns the joined problem list and its fetch cycles.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/problem-browser/internal/models"
)

var (
	// ErrStaleCycle is returned by Refresh when a newer cycle was applied first
	ErrStaleCycle = errors.New("stale fetch cycle discarded")

	// ErrCycleCancelled is returned by Refresh when its context ended before
	// the load finished. The catalog is left as it was.
	ErrCycleCancelled = errors.New("fetch cycle cancelled")
)

// Loader produces the joined problem list
type Loader interface {
	LoadProblems(ctx context.Context) ([]models.Problem, error)
}

// Catalog holds the most recently applied fetch result. Each Refresh is a
// fetch cycle stamped with a sequence number; results older than the last
// applied cycle are dropped.
type Catalog struct {
	loader Loader

	mu        sync.RWMutex
	started   uint64
	applied   uint64
	inflight  int
	problems  []models.Problem
	lastErr   error
	loadedAt  *time.Time
	listeners []func(models.CatalogSnapshot)
}

// New creates an empty catalog backed by loader
func New(loader Loader) *Catalog {
	return &Catalog{loader: loader}
}

// Subscribe registers fn to be called after every applied cycle
func (c *Catalog) Subscribe(fn func(models.CatalogSnapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Refresh runs a full fetch cycle. On failure the previous problem list is
// cleared, matching the all-or-nothing load contract. A cycle whose ctx ends
// first is not applied.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.started++
	c.inflight++
	seq := c.started
	c.mu.Unlock()

	slog.Info("catalog refresh started", "cycle", seq)
	problems, err := c.loader.LoadProblems(ctx)

	c.mu.Lock()
	c.inflight--
	if err != nil && ctx.Err() != nil {
		c.mu.Unlock()
		slog.Warn("fetch cycle cancelled", "cycle", seq, "error", ctx.Err())
		return fmt.Errorf("%w: %w", ErrCycleCancelled, ctx.Err())
	}
	if seq <= c.applied {
		c.mu.Unlock()
		slog.Warn("discarding stale fetch cycle", "cycle", seq, "applied", c.applied)
		return ErrStaleCycle
	}
	c.applied = seq
	if err != nil {
		c.problems = nil
		c.lastErr = err
	} else {
		now := time.Now()
		c.problems = problems
		c.lastErr = nil
		c.loadedAt = &now
	}
	snap := c.snapshotLocked()
	listeners := append([]func(models.CatalogSnapshot){}, c.listeners...)
	c.mu.Unlock()

	if err != nil {
		slog.Error("catalog refresh failed", "cycle", seq, "error", err)
	} else {
		slog.Info("catalog refresh applied", "cycle", seq, "problems", len(problems))
	}

	for _, fn := range listeners {
		fn(snap)
	}
	return err
}

// Problems returns a copy of the current problem list
func (c *Catalog) Problems() []models.Problem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Problem, len(c.problems))
	copy(out, c.problems)
	return out
}

// Snapshot returns the catalog state
func (c *Catalog) Snapshot() models.CatalogSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Ready reports whether the last applied cycle succeeded. A refresh in
// flight does not clear it.
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applied > 0 && c.lastErr == nil
}

func (c *Catalog) snapshotLocked() models.CatalogSnapshot {
	snap := models.CatalogSnapshot{
		ProblemCount: len(c.problems),
		Cycle:        c.applied,
		LoadedAt:     c.loadedAt,
	}
	switch {
	case c.inflight > 0:
		snap.Status = models.CatalogLoading
	case c.lastErr != nil:
		snap.Status = models.CatalogError
	case c.applied == 0:
		snap.Status = models.CatalogLoading
	default:
		snap.Status = models.CatalogReady
	}
	if c.lastErr != nil {
		snap.Error = "Failed to load problems from Codeforces API"
	}
	return snap
}
