package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	"github.com/dmitrijs2005/viewkeeper/internal/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_RecordPendingMirrorsLocalCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.cache.IncrementLocal(ctx, "p1")
	f.ledger.RecordPending(ctx, "p1")
	assert.Equal(t, map[string]int64{"p1": 1}, f.ledger.Entries(ctx))

	f.cache.IncrementLocal(ctx, "p1")
	f.cache.IncrementLocal(ctx, "p2")
	f.ledger.RecordPending(ctx, "p1")
	f.ledger.RecordPending(ctx, "p2")
	assert.Equal(t, map[string]int64{"p1": 2, "p2": 1}, f.ledger.Entries(ctx))

	raw, err := metadata.NewSQLiteRepository(f.db).Get(ctx, common.PendingStatsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"p1":2,"p2":1}`, string(raw))
}

func TestLedger_RecordPendingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.cache.IncrementLocal(ctx, "p1")
	f.ledger.RecordPending(ctx, "p1")
	before := f.ledger.Entries(ctx)

	f.ledger.RecordPending(ctx, "p1")
	assert.Equal(t, before, f.ledger.Entries(ctx))
}

func TestLedger_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.cache.IncrementLocal(ctx, "p1")
	f.ledger.RecordPending(ctx, "p1")

	again := NewLedger(f.db, NewLocalCache(f.db, logging.Nop()), "", logging.Nop())
	assert.Equal(t, map[string]int64{"p1": 1}, again.Entries(ctx))
}

func TestLedger_ExportEmpty(t *testing.T) {
	f := newFixture(t)
	a, err := f.ledger.ExportSubmission(context.Background())
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestLedger_ExportRoundTripAndNeverClears(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	for _, id := range []string{"a", "b", "a", "c", "a"} {
		f.cache.IncrementLocal(ctx, id)
		f.ledger.RecordPending(ctx, id)
	}

	a, err := f.ledger.ExportSubmission(ctx)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Contains(t, string(a.Text), "```json")
	assert.Contains(t, string(a.Text), "https://example.com/issues")

	sub, err := ParseArtifact(a.Text)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 3, "b": 1, "c": 1}, sub.Counts)
	assert.Equal(t, a.Submission.ID, sub.ID)
	assert.True(t, a.Submission.CreatedAt.Equal(sub.CreatedAt))
	assert.Equal(t, submission.KeyByID, sub.KeyedBy)

	assert.Equal(t, sub.Counts, f.ledger.Entries(ctx), "export does not clear the ledger")
}

func TestLedger_StorageFailureKeepsEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.cache.IncrementLocal(ctx, "p1")
	f.ledger.RecordPending(ctx, "p1")
	require.NoError(t, f.db.Close())

	f.cache.IncrementLocal(ctx, "p1")
	f.ledger.RecordPending(ctx, "p1")
	assert.Equal(t, map[string]int64{"p1": 2}, f.ledger.Entries(ctx))
}

func TestLedger_RecordPendingAsKeysByTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger.keyByTitle()

	f.cache.IncrementLocal(ctx, "cms-1")
	f.cache.IncrementLocal(ctx, "cms-1")
	f.ledger.RecordPendingAs(ctx, "cms-1", "Hello")
	f.ledger.RecordPendingAs(ctx, "cms-1", "Hello")
	assert.Equal(t, map[string]int64{"Hello": 2}, f.ledger.Entries(ctx))

	a, err := f.ledger.ExportSubmission(ctx)
	require.NoError(t, err)
	require.NotNil(t, a)

	sub, err := ParseArtifact(a.Text)
	require.NoError(t, err)
	assert.Equal(t, submission.KeyByTitle, sub.KeyedBy)
	assert.Equal(t, map[string]int64{"Hello": 2}, sub.Counts)
}
