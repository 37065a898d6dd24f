package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	"github.com/dmitrijs2005/viewkeeper/internal/submission"
)

// Ledger tracks views counted locally that the authoritative store has not
// seen. Each entry mirrors the post's local counter; the ledger is stored as
// one JSON object under "pending-stats" and is never cleared here: entries
// go away only when an operator merges an export out of band.
type Ledger struct {
	cache    *LocalCache
	repo     metadata.Repository
	issueURL string
	now      func() time.Time
	logger   logging.Logger

	mu      sync.Mutex
	overlay map[string]int64
	keyedBy string
}

func NewLedger(db *sql.DB, cache *LocalCache, issueURL string, logger logging.Logger) *Ledger {
	l := &Ledger{
		cache:    cache,
		issueURL: issueURL,
		now:      time.Now,
		logger:   logger.With("module", "ledger"),
		overlay:  map[string]int64{},
		keyedBy:  submission.KeyByID,
	}
	if db != nil {
		l.repo = metadata.NewSQLiteRepository(db)
	}
	return l
}

// loadLocked returns the persisted entries merged with what this process
// has recorded, so a failed write is not forgotten.
func (l *Ledger) loadLocked(ctx context.Context) map[string]int64 {
	out := make(map[string]int64, len(l.overlay))
	for k, v := range l.overlay {
		out[k] = v
	}
	if l.repo == nil {
		return out
	}

	raw, err := l.repo.Get(ctx, common.PendingStatsKey)
	if err != nil {
		l.logger.Warn(ctx, "pending stats read failed", "err", err)
		return out
	}
	if raw == nil {
		return out
	}

	var stored map[string]int64
	if err := json.Unmarshal(raw, &stored); err != nil {
		l.logger.Warn(ctx, "ignoring unreadable pending stats", "err", err)
		return out
	}
	for k, v := range stored {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// keyByTitle marks exports as keyed by post title, which is how the
// server resolves them when counters are addressed by title.
func (l *Ledger) keyByTitle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keyedBy = submission.KeyByTitle
}

// RecordPending sets the entry for postID to its current local count.
// Recording an unchanged count writes nothing.
func (l *Ledger) RecordPending(ctx context.Context, postID string) {
	l.RecordPendingAs(ctx, postID, postID)
}

// RecordPendingAs is RecordPending with the entry stored under key, the
// name the server knows the post by.
func (l *Ledger) RecordPendingAs(ctx context.Context, postID, key string) {
	count := l.cache.GetLocal(ctx, postID)

	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.loadLocked(ctx)
	if cur, ok := entries[key]; ok && cur == count {
		return
	}
	entries[key] = count
	l.overlay = entries

	if l.repo == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err == nil {
		err = l.repo.Set(ctx, common.PendingStatsKey, raw)
	}
	if err != nil {
		l.logger.Warn(ctx, "pending stats not persisted", "post", postID, "key", key, "err", err)
	}
}

// Entries returns a copy of the pending mapping.
func (l *Ledger) Entries(ctx context.Context) map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(ctx)
}

// Artifact is a rendered export ready to hand to an operator.
type Artifact struct {
	Submission *submission.Submission
	Text       []byte
}

// ExportSubmission renders the pending mapping with merge instructions. It
// returns nil when nothing is pending and never clears the ledger.
func (l *Ledger) ExportSubmission(ctx context.Context) (*Artifact, error) {
	l.mu.Lock()
	entries := l.loadLocked(ctx)
	keyedBy := l.keyedBy
	l.mu.Unlock()
	if len(entries) == 0 {
		return nil, nil
	}

	sub := submission.New(entries, l.now())
	sub.KeyedBy = keyedBy
	text, err := submission.Render(sub, l.issueURL)
	if err != nil {
		return nil, fmt.Errorf("render submission: %w", err)
	}
	return &Artifact{Submission: sub, Text: text}, nil
}

// ParseArtifact reads back the mapping from an exported artifact.
func ParseArtifact(b []byte) (*submission.Submission, error) {
	return submission.Parse(b)
}
