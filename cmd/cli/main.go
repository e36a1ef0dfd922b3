package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aleksv/spendsync/internal/client/cli"
	"github.com/aleksv/spendsync/internal/client/config"
	"github.com/aleksv/spendsync/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	app.Run(ctx)
}
