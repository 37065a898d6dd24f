package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	"github.com/dmitrijs2005/viewkeeper/internal/server/repositories/documents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	posts, err := ParseSeed([]byte(`[
		{"id":"p1","title":"First","created":"2024-01-02T03:04:05Z","views":12},
		{"id":"p2","title":"Second","created":"2024-02-01T00:00:00Z"}
	]`))
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p1", posts[0].ID)
	require.NotNil(t, posts[0].Views)
	assert.Equal(t, int64(12), *posts[0].Views)
	assert.Nil(t, posts[1].Views)

	_, err = ParseSeed([]byte(`{"id":1}`))
	assert.Error(t, err)
}

func TestSeedService_Seed(t *testing.T) {
	ctx := context.Background()
	repo := documents.NewMemoryRepository()
	seed := NewSeedService(repo, "posts", logging.Nop())

	n, err := seed.Seed(ctx, []SeedPost{
		{ID: "p1", Title: "First", Views: i64(3)},
		{ID: "", Title: "No id"},
		{ID: "p2", Title: "Second"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	counters := NewCounterService(repo, logging.Nop())
	v, err := counters.Get(ctx, common.ByTitle("posts", "First"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = counters.Increment(ctx, common.ByID("p1"))
	require.NoError(t, err)

	// reseeding keeps live counters
	_, err = seed.Seed(ctx, []SeedPost{{ID: "p1", Title: "First", Views: i64(0)}})
	require.NoError(t, err)
	v, err = counters.Get(ctx, common.ByID("p1"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}

func TestSeedService_RejectsNegativeViews(t *testing.T) {
	ctx := context.Background()
	repo := documents.NewMemoryRepository()
	seed := NewSeedService(repo, "posts", logging.Nop())

	n, err := seed.Seed(ctx, []SeedPost{
		{ID: "p1", Title: "First", Views: i64(2)},
		{ID: "p2", Title: "Second", Views: i64(-5)},
	})
	require.ErrorIs(t, err, ErrNegativeViews)
	assert.Zero(t, n)

	_, err = repo.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrorNotFound, "nothing is written when a record is rejected")
}
