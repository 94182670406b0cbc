package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/terra-clan/problem-browser/internal/cli"
	"github.com/terra-clan/problem-browser/internal/config"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	root := cli.NewRootCmd(&cli.App{Config: cfg})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
