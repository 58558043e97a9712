package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"Inventory/internal/catalog"
	"Inventory/internal/config"
	"Inventory/pkg/kit"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConsole()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := kit.NewConsoleLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Storage.Backend != config.BackendFile {
		log.Warn("the console only reads and writes files, ignoring STORAGE_BACKEND",
			zap.String("backend", cfg.Storage.Backend),
			zap.String("file", cfg.Storage.File),
		)
	}

	c := catalog.New(catalog.Deps{
		Storage: catalog.NewFileStorage(cfg.Storage.File),
		Log:     log,
	})

	con := newConsole(c, os.Stdin, os.Stdout, cfg.Storage.File)
	if err := con.run(ctx); err != nil {
		log.Error("console stopped", zap.Error(err))
		os.Exit(1)
	}
}
