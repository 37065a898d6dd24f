// Package server wires the Counter API: it opens the configured document
// store, builds the counter services and runs the HTTP server until a
// shutdown signal. It also hosts the operator commands (merge, seed).
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/viewkeeper/internal/artifacts"
	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	"github.com/dmitrijs2005/viewkeeper/internal/server/config"
	"github.com/dmitrijs2005/viewkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/viewkeeper/internal/server/repositories/documents"
	"github.com/dmitrijs2005/viewkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/viewkeeper/internal/server/services"
	"github.com/dmitrijs2005/viewkeeper/internal/submission"
)

type App struct {
	config   *config.Config
	logger   *logging.SlogLogger
	docs     documents.Repository
	ping     httpapi.Pinger
	closers  []io.Closer
	counters *services.CounterService
}

// openStore connects the configured backend. Postgres is migrated on open.
func openStore(ctx context.Context, c *config.Config) (documents.Repository, httpapi.Pinger, []io.Closer, error) {
	switch c.Store {
	case config.StoreMemory:
		return documents.NewMemoryRepository(), nil, nil, nil

	case config.StoreRedis:
		r, err := documents.NewRedisRepository(c.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("redis init error: %w", err)
		}
		ping := func(ctx context.Context) error { return r.Client.Ping(ctx).Err() }
		return r, ping, []io.Closer{r}, nil

	case config.StorePostgres:
		db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("db init error: %w", err)
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("migrations error: %w", err)
		}
		return rm.Documents(db), pingDB(db), []io.Closer{db}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store %q", c.Store)
}

func pingDB(db *sql.DB) httpapi.Pinger {
	return db.PingContext
}

// NewApp opens the store and builds the services. The logger writes JSON
// to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(w, slog.LevelInfo)

	docs, ping, closers, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	return &App{
		config:   c,
		logger:   logger,
		docs:     docs,
		ping:     ping,
		closers:  closers,
		counters: services.NewCounterService(docs, logger),
	}, nil
}

// Close releases store connections.
func (app *App) Close() error {
	var first error
	for _, c := range app.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Server builds the HTTP server for the app's store.
func (app *App) Server() *httpapi.Server {
	return httpapi.NewServer(httpapi.Options{
		Address:    app.config.EndpointAddrHTTP,
		TitleTable: app.config.TitleTable,
		Metrics:    app.config.Metrics,
		Ping:       app.ping,
	}, app.counters, app.logger)
}

// Serve runs the Counter API until ctx is cancelled or a signal arrives.
func (app *App) Serve(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.Store)

	app.initSignalHandler(cancelFunc)

	return app.Server().Run(ctx)
}

// Merge applies an exported artifact from a path or s3:// URL. The
// submission keys are post titles in the configured table when byTitle is
// set or the artifact says it was keyed by title.
func (app *App) Merge(ctx context.Context, location string, byTitle bool) (*services.MergeReport, error) {
	data, err := artifacts.Open(ctx, location, app.s3Config())
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	sub, err := submission.Parse(data)
	if err != nil {
		return nil, err
	}

	resolve := common.ByID
	if byTitle || sub.KeyedBy == submission.KeyByTitle {
		table := app.config.TitleTable
		resolve = func(key string) common.Selector { return common.ByTitle(table, key) }
	}

	app.logger.Info(ctx, "merging submission", "submission", sub.ID, "posts", len(sub.Counts), "total", sub.Total(), "keyed_by", sub.KeyedBy)
	return services.NewMergeService(app.counters, app.logger).Merge(ctx, sub, resolve)
}

// Seed creates documents from a JSON post table file.
func (app *App) Seed(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	posts, err := services.ParseSeed(data)
	if err != nil {
		return 0, err
	}
	return services.NewSeedService(app.docs, app.config.TitleTable, app.logger).Seed(ctx, posts)
}

func (app *App) s3Config() artifacts.S3Config {
	return artifacts.S3Config{
		User:         app.config.S3RootUser,
		Password:     app.config.S3RootPassword,
		Bucket:       app.config.S3Bucket,
		Region:       app.config.S3Region,
		BaseEndpoint: app.config.S3BaseEndpoint,
	}
}
