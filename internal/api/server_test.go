package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/problem-browser/internal/catalog"
	"github.com/terra-clan/problem-browser/internal/codeforces"
	"github.com/terra-clan/problem-browser/internal/config"
	"github.com/terra-clan/problem-browser/internal/models"
	"github.com/terra-clan/problem-browser/internal/presets"
	"github.com/terra-clan/problem-browser/internal/progress"
	"github.com/terra-clan/problem-browser/internal/session"
	"github.com/terra-clan/problem-browser/internal/storage"
)

type staticLoader struct {
	mu       sync.Mutex
	problems []models.Problem
	err      error
	gate     chan struct{}
}

func (l *staticLoader) LoadProblems(ctx context.Context) ([]models.Problem, error) {
	l.mu.Lock()
	gate := l.gate
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.problems, l.err
}

// stall makes loads wait until the returned func is called
func (l *staticLoader) stall() func() {
	gate := make(chan struct{})
	l.mu.Lock()
	l.gate = gate
	l.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (l *staticLoader) fail(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

type envelope[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Error   *apiError `json:"error"`
}

func decode[T any](t *testing.T, resp *http.Response) envelope[T] {
	t.Helper()
	defer resp.Body.Close()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

type testEnv struct {
	server  *Server
	http    *httptest.Server
	loader  *staticLoader
	catalog *catalog.Catalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	loader := &staticLoader{problems: []models.Problem{
		{ContestID: 1000, Index: "B", Name: "Old Two", Division: models.Div2, StartTime: 100},
		{ContestID: 1001, Index: "B", Name: "Three", Division: models.Div3, StartTime: 200},
		{ContestID: 1002, Index: "B", Name: "New Two", Division: models.Div2, StartTime: 300},
		{ContestID: 1002, Index: "A", Name: "New Two A", Division: models.Div2, StartTime: 300},
	}}

	backend, err := storage.NewFileBackend(filepath.Join(t.TempDir(), "progress.json"))
	require.NoError(t, err)

	cat := catalog.New(loader)
	store := progress.Open(context.Background(), backend)
	sessions := session.NewManager(cat, store, time.Hour)

	s := NewServer(config.ServerConfig{}, cat, store, sessions, presets.NewLoader())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: s, http: ts, loader: loader, catalog: cat}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.http.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.http.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) createSession(t *testing.T) models.View {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.View](t, resp).Data
}

func names(v models.View) []string {
	out := make([]string, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = e.Name
	}
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[map[string]string](t, resp).Success)
}

func TestReady_RequiresLoadedCatalog(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	require.NoError(t, env.catalog.Refresh(context.Background()))

	resp = env.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestMeta(t *testing.T) {
	env := newTestEnv(t)

	meta := decode[models.Meta](t, env.do(t, http.MethodGet, "/api/v1/meta", "")).Data
	assert.Equal(t, models.Divisions, meta.Divisions)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, meta.Indices)
	assert.Equal(t, []models.Division{models.Div2}, meta.DefaultFilters.Divisions)
	assert.Equal(t, []string{"B"}, meta.DefaultFilters.Indices)
	assert.Equal(t, models.SortNewest, meta.DefaultFilters.SortOrder)
}

func TestCatalog_RefreshAndFailure(t *testing.T) {
	env := newTestEnv(t)

	snap := decode[models.CatalogSnapshot](t, env.do(t, http.MethodGet, "/api/v1/catalog", "")).Data
	assert.Equal(t, models.CatalogLoading, snap.Status)

	resp := env.do(t, http.MethodPost, "/api/v1/catalog/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decode[models.CatalogSnapshot](t, resp).Data
	assert.Equal(t, models.CatalogReady, snap.Status)
	assert.Equal(t, 4, snap.ProblemCount)

	env.loader.fail(errors.Join(codeforces.ErrFetchFailed, errors.New("boom")))
	resp = env.do(t, http.MethodPost, "/api/v1/catalog/refresh", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	failed := decode[any](t, resp)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "fetch_failed", failed.Error.Code)

	snap = decode[models.CatalogSnapshot](t, env.do(t, http.MethodGet, "/api/v1/catalog", "")).Data
	assert.Equal(t, models.CatalogError, snap.Status)
	assert.Equal(t, 0, snap.ProblemCount)
}

func TestCatalog_RefreshSurvivesClientAbort(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.catalog.Refresh(context.Background()))

	release := env.loader.stall()
	t.Cleanup(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, env.http.URL+"/api/v1/catalog/refresh", nil)
	require.NoError(t, err)
	_, err = env.http.Client().Do(req)
	require.Error(t, err)

	assert.True(t, env.catalog.Ready())
	assert.Len(t, env.catalog.Problems(), 4)
	assert.NotEqual(t, models.CatalogError, env.catalog.Snapshot().Status)

	release()
	require.Eventually(t, func() bool {
		snap := env.catalog.Snapshot()
		return snap.Status == models.CatalogReady && snap.Cycle == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, env.catalog.Problems(), 4)
}

func TestSession_DefaultViewAndFilters(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.catalog.Refresh(context.Background()))

	view := env.createSession(t)
	require.NotEmpty(t, view.SessionID)
	assert.Equal(t, models.ViewList, view.ViewMode)
	assert.Equal(t, []string{"New Two", "Old Two"}, names(view))
	assert.Equal(t, 2, view.Total)

	base := "/api/v1/sessions/" + view.SessionID

	view = decode[models.View](t, env.do(t, http.MethodPost, base+"/divisions/3/toggle", "")).Data
	assert.Equal(t, []string{"New Two", "Three", "Old Two"}, names(view))

	view = decode[models.View](t, env.do(t, http.MethodPost, base+"/indices/a/toggle", "")).Data
	assert.Equal(t, []string{"B", "A"}, view.Filters.Indices)
	assert.Equal(t, []string{"New Two", "New Two A", "Three", "Old Two"}, names(view))

	view = decode[models.View](t, env.do(t, http.MethodPut, base+"/sort", `{"order":"oldest"}`)).Data
	assert.Equal(t, []string{"Old Two", "Three", "New Two", "New Two A"}, names(view))

	view = decode[models.View](t, env.do(t, http.MethodPut, base+"/view-mode", `{"mode":"card"}`)).Data
	assert.Equal(t, models.ViewCard, view.ViewMode)

	view = decode[models.View](t, env.do(t, http.MethodGet, base, "")).Data
	assert.Equal(t, models.SortOldest, view.Filters.SortOrder)
	assert.Equal(t, models.ViewCard, view.ViewMode)
}

func TestSession_Validation(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/v1/sessions/" + env.createSession(t).SessionID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown division", http.MethodPost, base + "/divisions/5/toggle", "", http.StatusBadRequest},
		{"bad index", http.MethodPost, base + "/indices/1x/toggle", "", http.StatusBadRequest},
		{"bad sort", http.MethodPut, base + "/sort", `{"order":"sideways"}`, http.StatusBadRequest},
		{"bad view mode", http.MethodPut, base + "/view-mode", `{"mode":"grid"}`, http.StatusBadRequest},
		{"bad json", http.MethodPut, base + "/sort", `{`, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, decode[any](t, resp).Success)
		})
	}
}

func TestSession_Delete(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/v1/sessions/" + env.createSession(t).SessionID

	resp := env.do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProgress_UpdateReflectsInView(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.catalog.Refresh(context.Background()))
	base := "/api/v1/sessions/" + env.createSession(t).SessionID

	resp := env.do(t, http.MethodPatch, base+"/progress/1002/b", `{"done":true,"notes":"greedy"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pr := decode[models.ProgressResponse](t, resp).Data
	assert.Equal(t, 1002, pr.ContestID)
	assert.Equal(t, "B", pr.Index)
	assert.True(t, pr.Progress.Done)
	assert.Equal(t, "greedy", pr.Progress.Notes)
	assert.NotZero(t, pr.Progress.UpdatedAt)
	assert.True(t, pr.Persisted)

	view := decode[models.View](t, env.do(t, http.MethodGet, base, "")).Data
	assert.Equal(t, 1, view.Done)
	assert.True(t, view.Entries[0].Progress.Done)

	pr = decode[models.ProgressResponse](t, env.do(t, http.MethodGet, "/api/v1/progress/1002/B", "")).Data
	assert.Equal(t, "greedy", pr.Progress.Notes)

	resp = env.do(t, http.MethodPatch, "/api/v1/progress/1002/B", `{"notes":""}`)
	pr = decode[models.ProgressResponse](t, resp).Data
	assert.True(t, pr.Progress.Done, "done must survive a notes-only update")
	assert.Equal(t, "", pr.Progress.Notes)
}

func TestProgress_GetUntouchedIsNotPersisted(t *testing.T) {
	env := newTestEnv(t)

	pr := decode[models.ProgressResponse](t, env.do(t, http.MethodGet, "/api/v1/progress/1000/B", "")).Data
	assert.False(t, pr.Persisted)
	assert.False(t, pr.Progress.Done)
	assert.Zero(t, pr.Progress.UpdatedAt)

	resp := env.do(t, http.MethodPatch, "/api/v1/progress/1000/B", `{"notes":"later"}`)
	resp.Body.Close()

	pr = decode[models.ProgressResponse](t, env.do(t, http.MethodGet, "/api/v1/progress/1000/B", "")).Data
	assert.True(t, pr.Persisted)
	assert.Equal(t, "later", pr.Progress.Notes)
}

func TestProgress_Validation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPatch, "/api/v1/progress/abc/B", `{"done":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPatch, "/api/v1/progress/1/B", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.catalog.Refresh(context.Background()))
	base := "/api/v1/sessions/" + env.createSession(t).SessionID

	resp := env.do(t, http.MethodGet, base+"/export.csv", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "New Two")
	assert.Contains(t, lines[2], "Old Two")
}

func TestViewWebsocket_PushesChanges(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.catalog.Refresh(context.Background()))
	id := env.createSession(t).SessionID

	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/api/v1/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ViewMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg ViewMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	msg := read()
	require.Equal(t, "view", msg.Type)
	assert.Equal(t, 2, msg.View.Total)

	require.Eventually(t, func() bool { return env.server.Hub().ClientCount(id) == 1 }, time.Second, 10*time.Millisecond)

	resp := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/divisions/3/toggle", "")
	resp.Body.Close()

	msg = read()
	require.Equal(t, "view", msg.Type)
	assert.Equal(t, 3, msg.View.Total)

	resp = env.do(t, http.MethodPatch, "/api/v1/progress/1001/B", `{"done":true}`)
	resp.Body.Close()

	msg = read()
	assert.Equal(t, 1, msg.View.Done)

	resp = env.do(t, http.MethodDelete, "/api/v1/sessions/"+id, "")
	resp.Body.Close()

	msg = read()
	assert.Equal(t, "closed", msg.Type)
}

func TestPresets_ListAndApply(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.catalog.Refresh(context.Background()))
	base := "/api/v1/sessions/" + env.createSession(t).SessionID

	type presetList struct {
		Presets []models.Preset `json:"presets"`
		Total   int             `json:"total"`
	}
	list := decode[presetList](t, env.do(t, http.MethodGet, "/api/v1/presets", "")).Data
	require.NotZero(t, list.Total)

	view := decode[models.View](t, env.do(t, http.MethodPost, base+"/presets/warmup", "")).Data
	assert.Equal(t, models.ViewCard, view.ViewMode)
	assert.Equal(t, []string{"A", "B"}, view.Filters.Indices)
	assert.Equal(t, []string{"Three"}, names(view))

	resp := env.do(t, http.MethodPost, base+"/presets/unknown", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
