package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Inventory/internal/auth"
	"Inventory/internal/catalog"
	"Inventory/internal/config"
	"Inventory/pkg/kit"
)

const service = "inventory"

func main() {
	// .env is optional.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := kit.NewLogger(service, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("config loaded", zap.Stringer("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	defer closeStorage()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := catalog.New(catalog.Deps{
		Storage: storage,
		Log:     log,
		Metrics: catalog.NewMetrics(reg),
	})
	if _, err := c.Load(ctx); err != nil {
		if !errors.Is(err, catalog.ErrNoSnapshot) {
			log.Fatal("load catalog", zap.Error(err))
		}
		log.Info("starting with an empty catalog", zap.String("backend", cfg.Storage.Backend))
	}

	deps := catalog.HTTPDeps{
		Log:              log,
		Service:          service,
		Registry:         reg,
		MetricsEnabled:   cfg.Metrics.Enabled,
		MetricsToken:     cfg.Metrics.Token,
		LoginLimitPerMin: cfg.Auth.LoginLimitPerMin,
	}
	if cfg.AuthEnabled() {
		deps.Auth, err = newAuth(ctx, cfg.Auth, log)
		if err != nil {
			log.Fatal("seed operator", zap.Error(err))
		}
	} else {
		log.Warn("JWT_SECRET unset, catalog writes are not authenticated")
	}

	h := catalog.NewHandler(&catalog.Server{Catalog: c, Log: log}, deps)

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	if err := kit.RunHTTPServer(ctx, addr, h, log, cfg.Server.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (catalog.Storage, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := catalog.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		st := catalog.NewPostgresStorage(db)
		if err := ensureSchema(ctx, st); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return st, func() { _ = db.Close() }, nil
	default:
		return catalog.NewFileStorage(cfg.File), func() {}, nil
	}
}

func ensureSchema(ctx context.Context, st *catalog.PostgresStorage) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return st.EnsureSchema(ctx)
}

func newAuth(ctx context.Context, cfg config.AuthConfig, log *zap.Logger) (*auth.Server, error) {
	store := auth.NewMemStore()
	id, err := auth.Seed(ctx, store, cfg.OperatorEmail, cfg.OperatorPassword)
	if err != nil {
		return nil, err
	}
	log.Info("operator seeded", zap.String("operator_id", id), zap.String("email", cfg.OperatorEmail))

	return &auth.Server{
		Log:      log,
		Store:    store,
		JWT:      auth.NewTokenMaker(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	}, nil
}
