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

	"handoff/internal/config"
	"handoff/internal/jwtsigner"
	"handoff/internal/observability/logging"
	"handoff/internal/observability/metrics"
	"handoff/internal/revocation"
	"handoff/internal/service"
	impl "handoff/internal/service/impl"
	"handoff/internal/similarity"
	"handoff/internal/store"
	httpx "handoff/internal/transport/http"
	"handoff/pkg/db"
)

func main() {
	cfg, err := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: "handoff",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)

	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister("handoff")

	// 1) DB
	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		return err
	}
	st := store.New(gdb)
	if cfg.MigrateOnStart {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		slog.Info("migrations applied")
	}

	// 2) Token denylist
	denylist, closeDenylist, err := openDenylist(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDenylist()

	// 3) Services
	keys, err := jwtsigner.New(cfg.TokenAlgorithm, cfg.SigningKey, cfg.SigningKeyID)
	if err != nil {
		return err
	}
	if cfg.SigningKey == "" {
		slog.Warn("no SIGNING_KEY set, using an ephemeral Ed25519 key; tokens will not survive a restart")
	}
	tokens := impl.NewTokenService(impl.TokenConfig{
		Issuer:    cfg.Issuer,
		AccessTTL: cfg.AccessTTL,
		Keys:      keys,
	})
	passwords, err := impl.NewPasswordService(cfg.PasswordAlgorithm, cfg.BcryptCost)
	if err != nil {
		return err
	}
	accounts := st.Accounts()
	auth := impl.NewAuthServiceImpl(accounts, passwords, tokens, denylist)
	receivers := impl.NewReceiverServiceImpl(accounts, similarity.TextProxy{})

	// 4) HTTP
	router := httpx.NewRouter(auth, receivers, tokens, denylist, httpx.Options{
		Production:        cfg.Production(),
		TrustProxy:        cfg.TrustProxy,
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		LoginInterval:     cfg.LoginInterval,
		LoginBurst:        cfg.LoginBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("handoff listening", "addr", srv.Addr, "issuer", cfg.Issuer, "token_alg", keys.Method().Alg(), "revocation", cfg.RevocationBackend)
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

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

func openDenylist(ctx context.Context, cfg config.Config) (service.Denylist, func(), error) {
	switch cfg.RevocationBackend {
	case revocation.BackendRedis:
		r, err := revocation.NewRedisFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	case revocation.BackendMemory:
		return revocation.NewMemory(), func() {}, nil
	default:
		return revocation.Noop{}, func() {}, nil
	}
}
