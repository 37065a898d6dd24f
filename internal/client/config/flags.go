package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags; see the
// package doc for the list. Durations are given in whole seconds.
func parseFlags(cfg *Config, args []string) error {
	// Filter args to include only those handled here.
	args = flagx.FilterArgs(args, []string{"-a", "-m", "-f", "-p", "-l", "-t", "-s", "-i", "-o", "-u"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "Counter API URL")
	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "count mode")
	fs.StringVar(&cfg.DBPath, "f", cfg.DBPath, "local database file")
	fs.StringVar(&cfg.PostsURL, "p", cfg.PostsURL, "post table URL")
	fs.StringVar(&cfg.PostsFile, "l", cfg.PostsFile, "post table file")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.Selector, "s", cfg.Selector, "counter selector: id or title")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.ExportDir, "o", cfg.ExportDir, "export directory or s3")
	fs.StringVar(&cfg.IssueURL, "u", cfg.IssueURL, "issue tracker URL")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// only explicit flags, so sub-second values from JSON survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
		case "i":
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
	return nil
}
