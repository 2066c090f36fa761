package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/livechat/internal/logging"
	"github.com/Tyrowin/livechat/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "livechat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, os.Stdout)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("address", cfg.Addr()).
		Str("history", cfg.HistoryBackend).
		Msg("starting livechat relay")

	if err := srv.Start(ctx); err != nil {
		return err
	}
	log.Info().Msg("server stopped cleanly")
	return nil
}
