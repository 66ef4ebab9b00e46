package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"civreg/internal/host"
	"civreg/internal/platform/config"
	"civreg/internal/platform/httpserver"
	"civreg/internal/platform/logger"
	platformmetrics "civreg/internal/platform/metrics"
	"civreg/internal/platform/postgres"
	"civreg/internal/platform/redis"
	"civreg/internal/record/models"
	"civreg/internal/registry/client"
	registrymetrics "civreg/internal/registry/metrics"
	registrystore "civreg/internal/registry/store"
	httptransport "civreg/internal/transport/http"
	"civreg/internal/wizard"
	"civreg/internal/wizard/guard"
	wizardmetrics "civreg/internal/wizard/metrics"
	"civreg/internal/wizard/ports"
	id "civreg/pkg/domain"
	audit "civreg/pkg/platform/audit"
	"civreg/pkg/platform/audit/publisher"
	kafkastore "civreg/pkg/platform/audit/store/kafka"
	auditmemory "civreg/pkg/platform/audit/store/memory"
	auditpostgres "civreg/pkg/platform/audit/store/postgres"
	"civreg/pkg/platform/circuit"
)

// main wires the wizard host behind its HTTP API. Business logic lives in
// internal/wizard; this file only chooses adapters from configuration.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("civreg stopped", "error", err)
		os.Exit(1)
	}
}

type registryBackend interface {
	ports.DuplicateSearcher
	ports.RecordStore
	httptransport.RecordLoader
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := platformmetrics.New(reg)
	wizMetrics := wizardmetrics.New(reg)
	regMetrics := registrymetrics.New(reg)

	auditStore, closeAudit, err := buildAuditStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	auditor := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)
	defer auditor.Close()

	backend := buildRegistry(cfg.Registry, regMetrics, log)

	var searcher ports.DuplicateSearcher = backend
	var hooks host.Hooks
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("duplicate search cache disabled", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
		cached := registrystore.NewCachedSearcher(backend, rdb.Client,
			registrystore.WithCacheTTL(cfg.Redis.CacheTTL),
			registrystore.WithCacheMetrics(regMetrics),
			registrystore.WithCacheLogger(log),
		)
		searcher = cached
		invalidate := func(r models.Record) {
			if err := cached.Invalidate(context.Background()); err != nil {
				log.Warn("duplicate cache invalidation failed", "record_id", r.ID, "error", err)
			}
		}
		hooks.OnSave = invalidate
		hooks.OnUpdate = invalidate
	}
	hooks.OnClose = func(sessionID id.SessionID) {
		log.Info("wizard session closed", "session_id", sessionID)
	}

	h := host.New(wizard.Deps{
		Searcher:  searcher,
		Store:     backend,
		Confirmer: guard.ContextConfirmer{},
		Auditor:   auditor,
	},
		host.WithLogger(log),
		host.WithHooks(hooks),
		host.WithSessionOptions(
			wizard.WithDebounce(cfg.Wizard.Debounce),
			wizard.WithDuplicateTimeout(cfg.Wizard.DuplicateTimeout),
			wizard.WithMetrics(wizMetrics),
		),
	)

	handler := httptransport.NewHandler(h, backend, log, httpMetrics)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		Logger:   log,
		Metrics:  httpMetrics,
		Gatherer: reg,
	})
	srv := httpserver.New(cfg.Server.Addr, router,
		httpserver.WithTimeouts(cfg.Server),
		httpserver.WithLogger(log),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting civreg", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		h.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildAuditStore produces to Kafka when brokers are configured, keeping an
// in-memory mirror for listing. Otherwise events go to Postgres when a DSN is
// set, and stay in memory as a last resort.
func buildAuditStore(ctx context.Context, cfg config.Config, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Kafka.Brokers) > 0 {
		kc, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.Kafka.Brokers...),
			kgo.AllowAutoTopicCreation(),
		)
		if err != nil {
			return nil, nil, err
		}
		log.Info("audit events produced to kafka", "brokers", cfg.Kafka.Brokers, "topic_prefix", cfg.Kafka.TopicPrefix)
		store := kafkastore.New(kc,
			kafkastore.WithTopicPrefix(cfg.Kafka.TopicPrefix),
			kafkastore.WithMirror(auditmemory.NewInMemoryStore()),
		)
		return store, kc.Close, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if pool != nil {
		store := auditpostgres.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("audit events stored in postgres")
		return store, pool.Close, nil
	}
	return auditmemory.NewInMemoryStore(), func() {}, nil
}

// buildRegistry talks to the remote registry when a URL is set, otherwise
// keeps records in process.
func buildRegistry(cfg config.Registry, m *registrymetrics.Metrics, log *slog.Logger) registryBackend {
	if cfg.URL == "" {
		log.Warn("no registry URL configured, records are kept in memory")
		return registrystore.NewInMemoryStore()
	}
	breaker := circuit.New("registry-search",
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	return client.New(cfg.URL,
		client.WithToken(cfg.Token),
		client.WithTimeout(cfg.Timeout),
		client.WithBreaker(breaker),
		client.WithMetrics(m),
		client.WithLogger(log),
	)
}
