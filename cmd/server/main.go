package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dmitrijs2005/viewkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/viewkeeper/internal/server"
	"github.com/dmitrijs2005/viewkeeper/internal/server/config"
	"github.com/urfave/cli/v2"
)

func main() {
	run(os.Args)
}

// Config flags are parsed by the config package so that -c, env and JSON
// layering work the same for every command; urfave/cli only dispatches.
func run(args []string) {
	// bare flags mean "serve"
	if len(args) == 1 || strings.HasPrefix(args[1], "-") {
		args = append([]string{args[0], "serve"}, args[1:]...)
	}

	app := cli.App{
		Name:  "viewkeeper-server",
		Usage: "view counter API and operator tools",
		Commands: []*cli.Command{
			{
				Name:            "serve",
				Usage:           "run the Counter API (default)",
				ArgsUsage:       "[-a addr] [-s postgres|redis|memory] [-d dsn] [-r redis-url] [-t table] [-m true|false] [-c config.json]",
				SkipFlagParsing: true,
				Action:          serve,
			},
			{
				Name:            "merge",
				Usage:           "add the counts of an exported artifact to the store",
				ArgsUsage:       "[-by-title] [store flags] <artifact path or s3://bucket/key>",
				SkipFlagParsing: true,
				Action:          merge,
			},
			{
				Name:            "seed",
				Usage:           "create documents from a JSON post table",
				ArgsUsage:       "[store flags] <posts.json>",
				SkipFlagParsing: true,
				Action:          seed,
			},
			{
				Name:  "version",
				Usage: "print build information",
				Action: func(c *cli.Context) error {
					buildinfo.PrintBuildData(c.App.Writer)
					return nil
				},
			},
		},
	}
	if err := app.Run(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openApp(ctx context.Context, args []string) (*server.App, error) {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, err
	}
	return server.NewApp(ctx, cfg, os.Stdout)
}

// target returns the trailing positional argument.
func target(args []string) (string, error) {
	if len(args) == 0 || strings.HasPrefix(args[len(args)-1], "-") {
		return "", fmt.Errorf("missing file argument")
	}
	return args[len(args)-1], nil
}

func serve(c *cli.Context) error {
	ctx := c.Context
	app, err := openApp(ctx, c.Args().Slice())
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Serve(ctx)
}

func merge(c *cli.Context) error {
	ctx := c.Context
	args := c.Args().Slice()

	location, err := target(args)
	if err != nil {
		return err
	}
	byTitle := slices.Contains(args, "-by-title") || slices.Contains(args, "--by-title")

	app, err := openApp(ctx, args[:len(args)-1])
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Merge(ctx, location, byTitle)
	if report != nil {
		for key, views := range report.Applied {
			fmt.Fprintf(c.App.Writer, "merged   %s -> %d\n", key, views)
		}
		for _, key := range report.Missing {
			fmt.Fprintf(c.App.Writer, "missing  %s\n", key)
		}
		for key, e := range report.Failed {
			fmt.Fprintf(c.App.Writer, "failed   %s: %v\n", key, e)
		}
	}
	return err
}

func seed(c *cli.Context) error {
	ctx := c.Context
	args := c.Args().Slice()

	path, err := target(args)
	if err != nil {
		return err
	}

	app, err := openApp(ctx, args[:len(args)-1])
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Seed(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "seeded %d documents\n", n)
	return nil
}
