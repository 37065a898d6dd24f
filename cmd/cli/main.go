package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/viewkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/viewkeeper/internal/client/cli"
	"github.com/dmitrijs2005/viewkeeper/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(ctx, cfg, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx, os.Stdin)

}
