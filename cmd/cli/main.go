package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/passlock/internal/cli"
	"github.com/dmitrijs2005/passlock/internal/config"
	"github.com/dmitrijs2005/passlock/internal/logging"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	// Warnings only: the REPL owns stdout, diagnostics go to stderr.
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	log := logging.NewSlogLogger(slog.New(handler))

	app := cli.NewApp(cfg, log)
	app.Run(context.Background())
}
