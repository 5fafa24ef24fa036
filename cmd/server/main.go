package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"propverify/internal/access"
	docservice "propverify/internal/documents/service"
	"propverify/internal/identity"
	"propverify/internal/platform/config"
	"propverify/internal/platform/httpserver"
	"propverify/internal/platform/logger"
	"propverify/internal/platform/metrics"
	"propverify/internal/statuschannel"
	httptransport "propverify/internal/transport/http"
	"propverify/internal/verification/policy"
	verification "propverify/internal/verification/service"
	"propverify/pkg/platform/tx"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	in, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.Close()

	auditPublisher, err := newAuditPublisher(ctx, cfg, in, log, m)
	if err != nil {
		return err
	}
	defer auditPublisher.Close()

	records, err := newMetadataStore(ctx, cfg, in, log)
	if err != nil {
		return err
	}
	documents := docservice.New(newObjectStore(cfg, in), records,
		docservice.WithLogger(log),
		docservice.WithAuditPublisher(auditPublisher),
		docservice.WithMetrics(m),
		docservice.WithMaxBytes(cfg.Uploads.MaxBytes),
		docservice.WithUploadTimeout(cfg.Uploads.Timeout),
		docservice.WithCleanupTimeout(cfg.Uploads.CleanupTimeout),
		docservice.WithStoreTimeout(cfg.Verification.StoreTimeout),
		docservice.WithSlotLock(tx.NewShardedLock(cfg.Verification.LockShards, cfg.Uploads.Timeout)),
	)

	decide, err := policy.ByName(cfg.Verification.DecisionPolicy)
	if err != nil {
		return err
	}
	cases := newCaseStore(in)
	broker := newBroker(cfg, in, log)

	// The channel reads through the verification service, which is built
	// after it, so the source is bound once the service exists.
	source := &lateSource{}
	statuses := statuschannel.New(source, broker,
		statuschannel.WithLogger(log),
		statuschannel.WithMetrics(m),
		statuschannel.WithFallbackTimeout(cfg.StatusStream.FallbackTimeout),
	)
	verifier := verification.New(cases, cases, documents,
		verification.WithLogger(log),
		verification.WithAuditPublisher(auditPublisher),
		verification.WithMetrics(m),
		verification.WithStatusPublisher(statuses),
		verification.WithPolicy(decide),
		verification.WithStoreTimeout(cfg.Verification.StoreTimeout),
		verification.WithLocks(tx.NewShardedLock(cfg.Verification.LockShards, cfg.Verification.StoreTimeout)),
	)
	source.bind(verifier)

	gate := access.New(verifier,
		access.WithLogger(log),
		access.WithAuditPublisher(auditPublisher),
		access.WithMetrics(m),
	)

	handler := httptransport.NewHandler(documents, verifier, gate, statuses,
		httptransport.WithLogger(log),
		httptransport.WithMaxUploadBytes(cfg.Uploads.MaxBytes),
		httptransport.WithOriginPatterns(cfg.Server.AllowedOrigins),
	)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		Resolver: newResolver(cfg, in, m),
		Gatherer: reg,
		Logger:   log,
		Ready: func() error {
			readyCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return in.Ready(readyCtx)
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting propverify",
			"addr", cfg.Server.Addr,
			"metadata_backend", cfg.Backends.Metadata,
			"object_backend", cfg.Backends.Objects,
			"status_broker", cfg.Backends.Status,
			"audit_sink", cfg.Backends.Audit,
			"decision_policy", cfg.Verification.DecisionPolicy,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if hub, ok := broker.(*statuschannel.Hub); ok {
		_ = hub.Close()
	}
	return nil
}

// newResolver orders providers from strongest to weakest credential.
func newResolver(cfg config.Config, in *infra, m *metrics.Metrics) identity.Chain {
	var sessions identity.SessionStore = identity.NewMemorySessions()
	if in.redis != nil {
		sessions = identity.NewRedisSessions(in.redis, "session:")
	}
	chain := identity.Chain{
		identity.NewJWTProvider(cfg.Identity.JWTSigningKey, cfg.Identity.JWTIssuer),
		identity.NewSessionProvider(sessions, cfg.Identity.SessionCacheSize, cfg.Identity.SessionCacheTTL, m),
	}
	if cfg.Identity.AllowAnonymous {
		chain = append(chain, identity.Anonymous{})
	}
	return chain
}
