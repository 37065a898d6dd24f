package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/viewkeeper/internal/client/client"
	"github.com/dmitrijs2005/viewkeeper/internal/client/models"
	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Mode selects how displayed counts are combined.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeRemote Mode = "remote" // remote only
	ModeHybrid Mode = "hybrid" // remote plus local
	ModeLocal  Mode = "local"  // local only
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModeRemote, ModeHybrid, ModeLocal:
		return m, nil
	case "":
		return ModeAuto, nil
	}
	return "", fmt.Errorf("unknown mode %q (want auto, remote, hybrid or local)", s)
}

// ResolveMode turns auto into a concrete mode: local when there is no
// network-capable counter origin (no URL, or a file: URL), remote otherwise.
func ResolveMode(m Mode, apiURL string) Mode {
	if m != ModeAuto {
		return m
	}
	u := strings.TrimSpace(apiURL)
	if u == "" || strings.HasPrefix(strings.ToLower(u), "file:") {
		return ModeLocal
	}
	return ModeRemote
}

// CountPolicy computes displayed counts and applies a view.
type CountPolicy interface {
	Mode() Mode
	// Count never fails; unreachable sources degrade to a fallback value.
	Count(ctx context.Context, p models.Post) int64
	// RecordView applies one view. ok is false when the view could not be
	// applied anywhere and the caller should keep its last count.
	RecordView(ctx context.Context, p models.Post) (n int64, ok bool)
}

// PolicyDeps are the collaborators a policy may use.
type PolicyDeps struct {
	Remote client.Client
	Cache  *LocalCache
	Ledger *Ledger
	// TitleTable switches remote calls to title selectors when non-empty.
	TitleTable string
	// LastKnownSize bounds the cache of last good remote reads.
	LastKnownSize int
	Logger        logging.Logger
}

// PolicyForMode builds the policy for m (auto is resolved against apiURL).
func PolicyForMode(m Mode, apiURL string, deps PolicyDeps) (CountPolicy, error) {
	if deps.Cache == nil {
		return nil, errors.New("policy needs a local cache")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	logger := deps.Logger.With("module", "count_policy")

	switch ResolveMode(m, apiURL) {
	case ModeLocal:
		return &LocalOnlyPolicy{cache: deps.Cache}, nil
	case ModeRemote, ModeHybrid:
		if deps.Remote == nil || deps.Ledger == nil {
			return nil, errors.New("remote modes need a client and a ledger")
		}
		size := deps.LastKnownSize
		if size <= 0 {
			size = 1024
		}
		known, err := lru.New[string, int64](size)
		if err != nil {
			return nil, err
		}
		rc := &remoteCounts{remote: deps.Remote, table: deps.TitleTable, lastKnown: known, logger: logger}
		if deps.TitleTable != "" {
			deps.Ledger.keyByTitle()
		}
		if ResolveMode(m, apiURL) == ModeHybrid {
			return &RemotePlusLocalPolicy{remoteCounts: rc, cache: deps.Cache, ledger: deps.Ledger}, nil
		}
		return &RemoteOnlyPolicy{remoteCounts: rc, cache: deps.Cache, ledger: deps.Ledger}, nil
	}
	return nil, fmt.Errorf("unknown mode %q", m)
}

// remoteCounts reads remote counters and remembers the last good value per
// post for when the counter is unreachable.
type remoteCounts struct {
	remote    client.Client
	table     string
	lastKnown *lru.Cache[string, int64]
	logger    logging.Logger
}

func (r *remoteCounts) known(p models.Post) int64 {
	if n, ok := r.lastKnown.Get(p.ID); ok {
		return n
	}
	return p.Views
}

// pendingKey is the ledger key the server can resolve: the title when
// counters are addressed by title, the id otherwise or when there is no title.
func (r *remoteCounts) pendingKey(p models.Post) string {
	if r.table != "" && p.Title != "" {
		return p.Title
	}
	return p.ID
}

func (r *remoteCounts) get(ctx context.Context, p models.Post) int64 {
	n, err := r.remote.Get(ctx, p.Selector(r.table))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Debug(ctx, "post has no remote counter", "post", p.ID)
		} else {
			r.logger.Warn(ctx, "remote count unavailable", "post", p.ID, "err", err)
		}
		return r.known(p)
	}
	r.lastKnown.Add(p.ID, n)
	return n
}

// RemoteOnlyPolicy displays the remote counter. A view the counter does not
// take, other than for an unknown post, is counted locally and recorded as
// pending.
type RemoteOnlyPolicy struct {
	*remoteCounts
	cache  *LocalCache
	ledger *Ledger
}

func (p *RemoteOnlyPolicy) Mode() Mode { return ModeRemote }

func (p *RemoteOnlyPolicy) Count(ctx context.Context, post models.Post) int64 {
	return p.get(ctx, post)
}

func (p *RemoteOnlyPolicy) RecordView(ctx context.Context, post models.Post) (int64, bool) {
	n, err := p.remote.Increment(ctx, post.Selector(p.table))
	switch {
	case err == nil:
		p.lastKnown.Add(post.ID, n)
		return n, true
	case errors.Is(err, common.ErrorNotFound):
		// unknown remotely: nothing sensible to count against
		p.logger.Warn(ctx, "increment rejected", "post", post.ID, "err", err)
		return 0, false
	default:
		p.logger.Warn(ctx, "increment failed, counting locally", "post", post.ID, "err", err)
		local := p.cache.IncrementLocal(ctx, post.ID)
		p.ledger.RecordPendingAs(ctx, post.ID, p.pendingKey(post))
		return p.known(post) + local, true
	}
}

// RemotePlusLocalPolicy displays remote + local. Views are counted locally
// and recorded as pending; the remote counter is never written.
type RemotePlusLocalPolicy struct {
	*remoteCounts
	cache  *LocalCache
	ledger *Ledger
}

func (p *RemotePlusLocalPolicy) Mode() Mode { return ModeHybrid }

func (p *RemotePlusLocalPolicy) Count(ctx context.Context, post models.Post) int64 {
	return p.get(ctx, post) + p.cache.GetLocal(ctx, post.ID)
}

func (p *RemotePlusLocalPolicy) RecordView(ctx context.Context, post models.Post) (int64, bool) {
	local := p.cache.IncrementLocal(ctx, post.ID)
	p.ledger.RecordPendingAs(ctx, post.ID, p.pendingKey(post))
	return p.known(post) + local, true
}

// LocalOnlyPolicy displays and bumps the local counter only.
type LocalOnlyPolicy struct {
	cache *LocalCache
}

func (p *LocalOnlyPolicy) Mode() Mode { return ModeLocal }

func (p *LocalOnlyPolicy) Count(ctx context.Context, post models.Post) int64 {
	return p.cache.GetLocal(ctx, post.ID)
}

func (p *LocalOnlyPolicy) RecordView(ctx context.Context, post models.Post) (int64, bool) {
	return p.cache.IncrementLocal(ctx, post.ID), true
}
