// Command registry-mock serves the civil registry record API the wizard
// submits to. Records live in Postgres when a DSN is set, otherwise in memory.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"civreg/internal/platform/config"
	"civreg/internal/platform/httpserver"
	"civreg/internal/platform/logger"
	"civreg/internal/platform/postgres"
	"civreg/internal/registry/handler"
	registrystore "civreg/internal/registry/store"
	"civreg/pkg/platform/middleware/request"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("registry-mock stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	store, closeStore, err := buildStore(ctx, cfg.Postgres, log)
	if err != nil {
		return err
	}
	defer closeStore()

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.Logger(log))
	r.Use(request.ContentTypeJSON)
	handler.New(store, cfg.Registry.Token, log).Register(r)

	addr := cfg.Registry.ListenAddr
	srv := httpserver.New(addr, r, httpserver.WithTimeouts(cfg.Server), httpserver.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting registry-mock", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildStore(ctx context.Context, cfg config.Postgres, log *slog.Logger) (handler.Store, func(), error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if pool == nil {
		log.Warn("no postgres DSN configured, records are kept in memory")
		return registrystore.NewInMemoryStore(), func() {}, nil
	}
	store := registrystore.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
