package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"remindd/internal/app"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file (YAML or JSON)")
	flag.Parse()

	a, err := app.New(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "remindd: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Start(ctx)

	// The menu owns the foreground; Ctrl-C or "Save & exit" both end it.
	if err := a.RunMenu(ctx, nil, nil); err != nil {
		fmt.Fprintf(os.Stderr, "remindd: %v\n", err)
	}

	stop()
	a.Stop()
}
