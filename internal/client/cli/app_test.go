package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/client/config"
	"github.com/dmitrijs2005/viewkeeper/internal/client/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postsJSON = `[
  {"id":"b","title":"Second","created":"2024-02-01T00:00:00Z"},
  {"id":"a","title":"First","created":"2024-03-01T00:00:00Z","views":1}
]`

// counterAPI is a minimal Counter API keyed by postId.
type counterAPI struct {
	mu    sync.Mutex
	views map[string]int64
}

func (c *counterAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	action := r.URL.Query().Get("action")
	if action != "get" && action != "increment" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid action"}`))
		return
	}
	id := r.URL.Query().Get("postId")
	n, ok := c.views[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Post not found"}`))
		return
	}
	if action == "increment" {
		n++
		c.views[id] = n
	}
	_ = json.NewEncoder(w).Encode(map[string]int64{"views": n})
}

func (c *counterAPI) get(id string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[id]
}

func testConfig(t *testing.T, apiURL, mode string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	postsFile := filepath.Join(dir, "posts.json")
	require.NoError(t, os.WriteFile(postsFile, []byte(postsJSON), 0o600))

	c := &config.Config{}
	c.LoadDefaults()
	c.APIURL = apiURL
	c.Mode = mode
	c.DBPath = filepath.Join(dir, "views.db")
	c.PostsFile = postsFile
	c.RequestTimeout = 2 * time.Second
	c.OnlineCheckInterval = time.Hour
	c.ExportDir = filepath.Join(dir, "exports")
	return c
}

func newTestApp(t *testing.T, c *config.Config) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app, err := NewApp(context.Background(), c, &out, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, &out
}

func TestApp_RunRemote(t *testing.T) {
	api := &counterAPI{views: map[string]int64{"a": 5, "b": 2}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	app, out := newTestApp(t, testConfig(t, srv.URL+"/api/views", "auto"))
	app.Run(context.Background(), strings.NewReader("open 1\nopen 1\nclose 1\nclose 1\nopen zzz\nexit\n"))

	text := out.String()
	assert.Contains(t, text, "vk (remote online)> ")
	assert.Contains(t, text, "First")
	assert.Contains(t, text, "5 views")
	assert.Contains(t, text, "First\n6 views\n")
	assert.Contains(t, text, "Closed: First")
	assert.Contains(t, text, "Post is not open: First")
	assert.Contains(t, text, "No such post: zzz")
	assert.Equal(t, int64(6), api.get("a"), "second open in the same session must not count")
}

func TestApp_RemoteOutageFallsBackToLedger(t *testing.T) {
	api := &counterAPI{views: map[string]int64{"a": 5, "b": 2}}
	srv := httptest.NewServer(api)

	app, out := newTestApp(t, testConfig(t, srv.URL+"/api/views", "remote"))
	ctx := context.Background()

	require.NoError(t, app.List(ctx))
	srv.Close()

	require.NoError(t, app.Open(ctx, "b"))
	assert.Contains(t, out.String(), "Second\n3 views\n")

	out.Reset()
	require.NoError(t, app.Pending(ctx))
	assert.Equal(t, "Pending submission:\n  b: 1\nLocal counts:\n  b: 1\n", out.String())

	path := filepath.Join(t.TempDir(), "submission.txt")
	out.Reset()
	require.NoError(t, app.Export(ctx, path))
	assert.Contains(t, out.String(), "Exported to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sub, err := services.ParseArtifact(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"b": 1}, sub.Counts)
}

func TestApp_LocalMode(t *testing.T) {
	c := testConfig(t, "", "auto")
	app, out := newTestApp(t, c)
	ctx := context.Background()

	assert.Equal(t, "local", app.getStatus())
	require.NoError(t, app.List(ctx))
	require.NoError(t, app.Open(ctx, "1"))
	assert.Contains(t, out.String(), "First\n1 views\n")

	out.Reset()
	require.NoError(t, app.Pending(ctx))
	assert.Equal(t, "Nothing pending.\nLocal counts:\n  a: 1\n", out.String())

	out.Reset()
	require.NoError(t, app.Export(ctx, ""))
	assert.Equal(t, "Nothing to export.\n", out.String())
}

func TestApp_ExportToStore(t *testing.T) {
	c := testConfig(t, "", "hybrid")
	c.APIURL = "http://127.0.0.1:1/api/views"
	c.RequestTimeout = 200 * time.Millisecond

	app, out := newTestApp(t, c)
	ctx := context.Background()

	require.NoError(t, app.List(ctx))
	require.NoError(t, app.Open(ctx, "a"))
	assert.Contains(t, out.String(), "First\n2 views\n", "seed views plus the local view")

	out.Reset()
	require.NoError(t, app.Export(ctx, ""))
	assert.Contains(t, out.String(), "Exported to "+c.ExportDir)

	entries, err := os.ReadDir(c.ExportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "views-"))
}

func TestApp_UnusableDatabaseCountsInMemory(t *testing.T) {
	c := testConfig(t, "", "local")
	c.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "views.db")

	app, out := newTestApp(t, c)
	ctx := context.Background()

	require.NoError(t, app.List(ctx))
	require.NoError(t, app.Open(ctx, "b"))
	assert.Contains(t, out.String(), "Second\n1 views\n")
}

func TestNewApp_BadMode(t *testing.T) {
	c := testConfig(t, "", "sometimes")
	_, err := NewApp(context.Background(), c, io.Discard, io.Discard)
	assert.Error(t, err)
}
