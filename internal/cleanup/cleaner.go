package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/terra-clan/problem-browser/internal/session"
)

// SessionExpirer lists and removes idle sessions
type SessionExpirer interface {
	GetExpired(ctx context.Context) ([]*session.Session, error)
	DeleteIfIdle(ctx context.Context, id string) error
}

// Cleaner handles periodic removal of idle browsing sessions
type Cleaner struct {
	sessions SessionExpirer
	interval time.Duration
	done     chan struct{}
}

// NewCleaner creates a new cleanup worker
func NewCleaner(sessions SessionExpirer, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		sessions: sessions,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed once the worker has stopped
func (c *Cleaner) Done() <-chan struct{} {
	return c.done
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	defer close(c.done)
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup finds and removes idle sessions
func (c *Cleaner) cleanup(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	expired, err := c.sessions.GetExpired(ctx)
	if err != nil {
		slog.Error("failed to get expired sessions", "error", err)
		return
	}

	if len(expired) == 0 {
		slog.Debug("no expired sessions found")
		return
	}

	slog.Info("found expired sessions", "count", len(expired))

	for _, s := range expired {
		info := s.Info()
		if err := c.sessions.DeleteIfIdle(ctx, info.ID); err != nil {
			if errors.Is(err, session.ErrStillActive) || errors.Is(err, session.ErrNotFound) {
				slog.Debug("expired session skipped", "session_id", info.ID, "reason", err)
				continue
			}
			slog.Error("failed to delete expired session",
				"error", err,
				"session_id", info.ID,
			)
			continue
		}

		slog.Info("expired session deleted",
			"session_id", info.ID,
			"last_seen", info.LastSeen,
		)
	}
}
