package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/viewkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/dbx"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
)

// LocalCache keeps per-post view counters in the client's metadata store
// under "post-views-<id>" as decimal text.
//
// Storage failures never reach the caller: reads fall back to zero and
// writes are logged and dropped. An in-memory overlay remembers every value
// handed out, so a session never sees a counter go backwards even when the
// file is read-only or gone. A nil db runs purely in memory.
type LocalCache struct {
	db      *sql.DB
	repo    metadata.Repository
	logger  logging.Logger
	mu      sync.Mutex
	overlay map[string]int64
}

func NewLocalCache(db *sql.DB, logger logging.Logger) *LocalCache {
	c := &LocalCache{db: db, logger: logger.With("module", "local_cache"), overlay: map[string]int64{}}
	if db != nil {
		c.repo = metadata.NewSQLiteRepository(db)
	}
	return c
}

// readCount loads a counter. Absent and unparsable values read as 0; only
// storage errors are returned.
func (c *LocalCache) readCount(ctx context.Context, repo metadata.Repository, postID string) (int64, error) {
	raw, err := repo.Get(ctx, common.LocalViewsKey(postID))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	if raw == nil {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || n < 0 {
		c.logger.Warn(ctx, "ignoring unreadable local counter", "post", postID, "value", string(raw))
		return 0, nil
	}
	return n, nil
}

func (c *LocalCache) getLocked(ctx context.Context, postID string) int64 {
	n := c.overlay[postID]
	if c.repo == nil {
		return n
	}
	stored, err := c.readCount(ctx, c.repo, postID)
	if err != nil {
		c.logger.Warn(ctx, "local counter read failed", "post", postID, "err", err)
		return n
	}
	return max(n, stored)
}

// GetLocal returns the local count for postID; 0 when there is none.
func (c *LocalCache) GetLocal(ctx context.Context, postID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(ctx, postID)
}

// IncrementLocal adds one view and returns the new local count.
func (c *LocalCache) IncrementLocal(ctx context.Context, postID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	floor := c.overlay[postID]
	next := c.getLocked(ctx, postID) + 1

	if c.db != nil {
		n, err := dbx.InTx(ctx, c.db, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
			repo := metadata.NewSQLiteRepository(tx)
			cur, err := c.readCount(ctx, repo, postID)
			if err != nil {
				return 0, err
			}
			n := max(cur, floor) + 1
			if err := repo.Set(ctx, common.LocalViewsKey(postID), []byte(strconv.FormatInt(n, 10))); err != nil {
				return 0, err
			}
			return n, nil
		})
		if err != nil {
			c.logger.Warn(ctx, "local counter not persisted", "post", postID, "err", err)
		} else {
			next = n
		}
	}

	c.overlay[postID] = next
	return next
}

// All returns every local counter keyed by post id.
func (c *LocalCache) All(ctx context.Context) map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int64, len(c.overlay))
	for id, n := range c.overlay {
		out[id] = n
	}
	if c.repo == nil {
		return out
	}

	rows, err := c.repo.ListPrefix(ctx, common.LocalViewsKeyPrefix)
	if err != nil {
		c.logger.Warn(ctx, "local counters list failed", "err", err)
		return out
	}
	for key, raw := range rows {
		id := key[len(common.LocalViewsKeyPrefix):]
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil && n > out[id] {
			out[id] = n
		}
	}
	return out
}
