// Package services holds the viewer-side counting logic: the local offline
// cache, the pending-submission ledger, the count policies and the
// aggregator that ties them to what the user sees.
package services

import (
	"context"

	"github.com/dmitrijs2005/viewkeeper/internal/client/models"
	"github.com/dmitrijs2005/viewkeeper/internal/client/posts"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
)

// Aggregator computes displayed counts and is the one place where a view
// is recorded. It never returns counting errors: every failure degrades to
// some number.
type Aggregator struct {
	dir     posts.Directory
	policy  CountPolicy
	session *Session
	logger  logging.Logger
}

func NewAggregator(dir posts.Directory, policy CountPolicy, session *Session, logger logging.Logger) *Aggregator {
	return &Aggregator{dir: dir, policy: policy, session: session, logger: logger.With("module", "aggregator")}
}

func (a *Aggregator) Policy() CountPolicy { return a.policy }

func (a *Aggregator) Session() *Session { return a.session }

// Refresh fetches the post list and computes every displayed count. Only
// the directory can fail.
func (a *Aggregator) Refresh(ctx context.Context) ([]models.PostView, error) {
	ps, err := a.dir.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	return a.LoadAll(ctx, ps), nil
}

// LoadAll computes the displayed count of each post.
func (a *Aggregator) LoadAll(ctx context.Context, ps []models.Post) []models.PostView {
	a.session.remember(ps)

	out := make([]models.PostView, 0, len(ps))
	for _, p := range ps {
		n := a.session.observe(p.ID, a.policy.Count(ctx, p))
		out = append(out, models.PostView{Post: p, Views: n, Revealed: a.session.IsRevealed(p.ID)})
	}
	return out
}

// RecordView counts one view of postID and returns the new displayed count.
func (a *Aggregator) RecordView(ctx context.Context, postID string) int64 {
	p := a.session.post(postID)

	n, ok := a.policy.RecordView(ctx, p)
	if !ok {
		return a.session.Displayed(postID)
	}
	a.logger.Debug(ctx, "view recorded", "post", postID, "mode", string(a.policy.Mode()), "count", n)
	return a.session.observe(postID, n)
}

// Reveal shows a post. The first reveal of a post in a session records a
// view; repeated or later reveals only report the current count.
func (a *Aggregator) Reveal(ctx context.Context, postID string) (int64, bool) {
	if !a.session.reveal(postID) {
		return a.session.Displayed(postID), false
	}
	return a.RecordView(ctx, postID), true
}

// Collapse hides a post.
func (a *Aggregator) Collapse(postID string) bool {
	return a.session.Collapse(postID)
}
