// Package metadata is the client's key/value store: local view counters
// ("post-views-<id>") and the pending-submission ledger ("pending-stats")
// live here.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// ListPrefix returns every pair whose key starts with prefix.
	ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error)
}
