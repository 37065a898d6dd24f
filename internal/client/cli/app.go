package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/artifacts"
	"github.com/dmitrijs2005/viewkeeper/internal/client/client"
	"github.com/dmitrijs2005/viewkeeper/internal/client/config"
	"github.com/dmitrijs2005/viewkeeper/internal/client/models"
	"github.com/dmitrijs2005/viewkeeper/internal/client/posts"
	"github.com/dmitrijs2005/viewkeeper/internal/client/services"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// presignTTL is how long a presigned export link stays valid.
const presignTTL = 24 * time.Hour

type App struct {
	config *config.Config
	db     *sql.DB
	remote client.Client
	agg    *services.Aggregator
	ledger *services.Ledger
	cache  *services.LocalCache
	store  artifacts.Store
	logger *logging.SlogLogger
	out    io.Writer

	online atomic.Bool

	mu      sync.Mutex
	listing []models.PostView
}

// NewApp builds the client from c. Log output goes to logw, user output
// to out. When the local database cannot be opened the app keeps counting
// in memory for the rest of the process.
func NewApp(ctx context.Context, c *config.Config, out, logw io.Writer) (*App, error) {
	logger := logging.NewTextLogger(logw, slog.LevelInfo)

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		logger.Warn(ctx, "local database unavailable, counting in memory", "path", c.DBPath, "err", err)
		db = nil
	}

	mode, err := services.ParseMode(c.Mode)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	cache := services.NewLocalCache(db, logger)
	ledger := services.NewLedger(db, cache, c.IssueURL, logger)

	var remote client.Client
	if c.APIURL != "" {
		remote = client.NewHTTPClient(c.APIURL, c.RequestTimeout, logger.Slog())
	}

	deps := services.PolicyDeps{Remote: remote, Cache: cache, Ledger: ledger, Logger: logger}
	if c.Selector == config.SelectByTitle {
		deps.TitleTable = c.TitleTable
	}
	policy, err := services.PolicyForMode(mode, c.APIURL, deps)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	store, err := newStore(ctx, c)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	agg := services.NewAggregator(newDirectory(c, logger.Slog()), policy, services.NewSession(), logger)

	return &App{
		config: c,
		db:     db,
		remote: remote,
		agg:    agg,
		ledger: ledger,
		cache:  cache,
		store:  store,
		logger: logger,
		out:    out,
	}, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// newDirectory prefers the remote post table and falls back to the file.
func newDirectory(c *config.Config, logger *slog.Logger) posts.Directory {
	var dirs posts.Fallback
	if c.PostsURL != "" {
		dirs = append(dirs, posts.NewHTTPDirectory(c.PostsURL, c.RequestTimeout, logger))
	}
	if c.PostsFile != "" {
		dirs = append(dirs, posts.NewFileDirectory(c.PostsFile))
	}
	if len(dirs) == 0 {
		return posts.NewStaticDirectory()
	}
	return dirs
}

func newStore(ctx context.Context, c *config.Config) (artifacts.Store, error) {
	if c.ExportDir != config.ExportToS3 {
		return artifacts.NewFileStore(c.ExportDir), nil
	}
	return artifacts.NewS3Store(ctx, artifacts.S3Config{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		Prefix:       "submissions",
	})
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Run starts the online watcher and the REPL; it returns when in is
// exhausted, the user exits, or ctx is done.
func (a *App) Run(ctx context.Context, in io.Reader) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "viewkeeper CLI (type 'help' for commands)")

	if a.remote != nil && a.agg.Policy().Mode() != services.ModeLocal {
		a.checkOnline(ctx)
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}

	_ = a.List(ctx)
	runREPL(ctx, a, a.getStatus, in, a.out)
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	var changed bool
	if mode == ModeOnline {
		changed = !a.online.Swap(true)
	} else {
		changed = a.online.Swap(false)
	}
	if changed {
		a.logger.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	if err := a.remote.Ping(ctx); err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher pings the Counter API every interval until ctx
// is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	m := a.agg.Policy().Mode()
	if m == services.ModeLocal || a.remote == nil {
		return string(m)
	}
	if a.online.Load() {
		return fmt.Sprintf("%s %s", m, ModeOnline)
	}
	return fmt.Sprintf("%s %s", m, ModeOffline)
}
