package client

import (
	"context"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
)

// Client is the Counter API as seen from the viewer side.
type Client interface {
	Get(ctx context.Context, sel common.Selector) (int64, error)
	Increment(ctx context.Context, sel common.Selector) (int64, error)
	Ping(ctx context.Context) error
}
