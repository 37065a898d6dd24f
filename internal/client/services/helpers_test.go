package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/viewkeeper/internal/client/client"
	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "views.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	db     *sql.DB
	cache  *LocalCache
	ledger *Ledger
	remote *fakeRemote
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupDB(t)
	cache := NewLocalCache(db, logging.Nop())
	return &fixture{
		db:     db,
		cache:  cache,
		ledger: NewLedger(db, cache, "https://example.com/issues", logging.Nop()),
		remote: newFakeRemote(),
	}
}

func (f *fixture) policy(t *testing.T, m Mode) CountPolicy {
	t.Helper()
	p, err := PolicyForMode(m, "https://example.com/api/views", PolicyDeps{
		Remote: f.remote, Cache: f.cache, Ledger: f.ledger, Logger: logging.Nop(),
	})
	require.NoError(t, err)
	return p
}

// fakeRemote is an in-memory Counter API keyed by selector string.
type fakeRemote struct {
	mu       sync.Mutex
	views    map[string]int64
	down     bool
	incCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{views: map[string]int64{}}
}

func (f *fakeRemote) key(sel common.Selector) string {
	if sel.IsTitle() {
		return sel.Table + "/" + sel.Title
	}
	return sel.ID
}

func (f *fakeRemote) set(key string, n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views[key] = n
}

func (f *fakeRemote) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeRemote) Get(ctx context.Context, sel common.Selector) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return 0, common.ErrRemoteUnavailable
	}
	if err := sel.Validate(); err != nil {
		return 0, err
	}
	n, ok := f.views[f.key(sel)]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return n, nil
}

func (f *fakeRemote) Increment(ctx context.Context, sel common.Selector) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incCalls++
	if f.down {
		return 0, common.ErrRemoteUnavailable
	}
	if err := sel.Validate(); err != nil {
		return 0, err
	}
	k := f.key(sel)
	n, ok := f.views[k]
	if !ok {
		return 0, common.ErrorNotFound
	}
	f.views[k] = n + 1
	return n + 1, nil
}

func (f *fakeRemote) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return common.ErrRemoteUnavailable
	}
	return nil
}

func (f *fakeRemote) increments() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.incCalls
}
