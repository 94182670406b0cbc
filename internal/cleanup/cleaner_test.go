package cleanup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/terra-clan/problem-browser/internal/models"
	"github.com/terra-clan/problem-browser/internal/session"
)

type emptyCatalog struct{}

func (emptyCatalog) Problems() []models.Problem { return nil }
func (emptyCatalog) Snapshot() models.CatalogSnapshot { return models.CatalogSnapshot{} }

type noProgress struct{}

func (noProgress) Get(int, string) models.Progress { return models.Progress{} }

func (noProgress) SetDone(context.Context, int, string, bool) (models.Progress, error) {
	return models.Progress{}, nil
}

func (noProgress) SetNotes(context.Context, int, string, string) (models.Progress, error) {
	return models.Progress{}, nil
}

func (noProgress) Update(context.Context, int, string, models.ProgressUpdate) (models.Progress, error) {
	return models.Progress{}, nil
}

// recordingExpirer wraps a manager and records deletions
type recordingExpirer struct {
	*session.Manager
	mu      sync.Mutex
	deleted []string
}

func (r *recordingExpirer) DeleteIfIdle(ctx context.Context, id string) error {
	if err := r.Manager.DeleteIfIdle(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	r.deleted = append(r.deleted, id)
	r.mu.Unlock()
	return nil
}

func (r *recordingExpirer) Deleted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deleted...)
}

func TestCleaner_RemovesIdleSessions(t *testing.T) {
	defer goleak.VerifyNone(t)

	manager := session.NewManager(emptyCatalog{}, noProgress{}, time.Nanosecond)
	s := manager.Create()
	time.Sleep(time.Millisecond)

	expirer := &recordingExpirer{Manager: manager}
	cleaner := NewCleaner(expirer, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cleaner.Start(ctx)

	require.Eventually(t, func() bool { return len(expirer.Deleted()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{s.ID()}, expirer.Deleted())

	_, err := manager.Get(s.ID())
	assert.ErrorIs(t, err, session.ErrNotFound)

	cancel()
	<-cleaner.Done()
}

// touchingExpirer uses every expired session right after listing it
type touchingExpirer struct {
	*session.Manager
}

func (e touchingExpirer) GetExpired(ctx context.Context) ([]*session.Session, error) {
	expired, err := e.Manager.GetExpired(ctx)
	for _, s := range expired {
		_, _ = e.Manager.Get(s.ID())
	}
	return expired, err
}

func TestCleaner_KeepsSessionUsedAfterListing(t *testing.T) {
	manager := session.NewManager(emptyCatalog{}, noProgress{}, 50*time.Millisecond)
	s := manager.Create()
	time.Sleep(60 * time.Millisecond)

	cleaner := NewCleaner(touchingExpirer{Manager: manager}, time.Hour)
	cleaner.cleanup(context.Background())

	_, err := manager.Get(s.ID())
	assert.NoError(t, err)
}

func TestNewCleaner_DefaultInterval(t *testing.T) {
	c := NewCleaner(nil, 0)
	assert.Equal(t, 5*time.Minute, c.interval)
}
