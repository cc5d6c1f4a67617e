// The gateway serves the sobriety-support API: profiles, day counts,
// slip-ups, sponsor tasks, invite codes, sponsorship pairings, reference
// content and the OAuth callback handoff.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stillwaterhq/stillwater/internal/analytics"
	"github.com/stillwaterhq/stillwater/internal/authflow"
	"github.com/stillwaterhq/stillwater/internal/config"
	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/gotrue"
	"github.com/stillwaterhq/stillwater/internal/logging"
	"github.com/stillwaterhq/stillwater/internal/metrics"
	"github.com/stillwaterhq/stillwater/internal/realtime"
	"github.com/stillwaterhq/stillwater/internal/securestore"
	"github.com/stillwaterhq/stillwater/internal/streak"
)

func main() {
	logger := logging.New("gateway")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("configuration error")
		os.Exit(1)
	}
	if cfg.Supabase.JWTSecret == "" {
		logger.Error("SUPABASE_JWT_SECRET is required")
		os.Exit(1)
	}

	m := metrics.New()

	dbClient, err := database.NewClient(database.Config{
		URL:        cfg.Supabase.URL,
		ServiceKey: cfg.Supabase.ServiceKey,
		Timeout:    cfg.Supabase.Timeout,
		Metrics:    m,
	})
	if err != nil {
		logger.WithError(err).Error("database client init failed")
		os.Exit(1)
	}
	repo := database.NewRepository(dbClient)

	authClient, err := gotrue.NewClient(gotrue.Config{
		URL:     cfg.Supabase.URL,
		AnonKey: cfg.Supabase.AnonKey,
		Timeout: cfg.Supabase.Timeout,
	})
	if err != nil {
		logger.WithError(err).Error("auth client init failed")
		os.Exit(1)
	}

	sink := analytics.NewHTTP(cfg.Analytics.Endpoint, cfg.Analytics.APIKey, logger)
	bootstrapper := authflow.NewBootstrapper(authClient, repo, sink, logger)
	tracker := streak.NewTracker(repo, logger)

	vault, err := buildVault(cfg.SecureStore, logger)
	if err != nil {
		logger.WithError(err).Error("secure store init failed")
		os.Exit(1)
	}

	srv := newServer(serverDeps{
		cfg:          cfg,
		logger:       logger,
		metrics:      m,
		repo:         repo,
		tracker:      tracker,
		bootstrapper: bootstrapper,
		vault:        vault,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Realtime.Enabled {
		stopNotifier := startTaskNotifier(ctx, cfg, repo, logger)
		defer stopNotifier()
	}

	// Stored invite rows go stale at their expiry instant; sweep them once a
	// day so listings and the redeem conflict path agree with EffectiveStatus.
	sweeper := streak.NewRollover(time.UTC, expireInvitesJob(repo, logger))
	sweeper.Start()
	defer sweeper.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gateway listening on %s", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown failed")
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server error")
			os.Exit(1)
		}
	}
}

// startTaskNotifier begins task-change notification delivery. Websocket mode
// subscribes to the Supabase Realtime endpoint; a failed connection or
// subscription falls back to the created_at poller. The returned func stops
// whichever transport ended up running.
func startTaskNotifier(ctx context.Context, cfg *config.Config, repo *database.Repository, logger *logging.Logger) func() {
	handler := func(e realtime.Event) {
		logger.WithFields(map[string]interface{}{
			"table": e.Table,
			"type":  e.Type,
		}).Info("task change detected")
	}

	if cfg.Realtime.Mode == config.RealtimeModeWebsocket {
		client := realtime.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, logger)
		if err := client.Connect(ctx); err != nil {
			logger.WithError(err).Warn("realtime connect failed; falling back to polling")
		} else if err := client.Subscribe(ctx, "tasks", realtime.EventInsert, handler); err != nil {
			logger.WithError(err).Warn("realtime subscribe failed; falling back to polling")
			_ = client.Close()
		} else {
			return func() { _ = client.Close() }
		}
	}

	poller := realtime.NewTaskPoller(repo, cfg.Realtime.PollInterval, handler, logger)
	poller.Start(ctx)
	return poller.Stop
}

type inviteExpirer interface {
	ExpireStaleInvites(ctx context.Context) (int, error)
}

// expireInvitesJob returns the midnight sweep flipping overdue active
// invites to expired.
func expireInvitesJob(repo inviteExpirer, logger *logging.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := repo.ExpireStaleInvites(ctx)
		if err != nil {
			logger.WithError(err).Warn("invite expiry sweep failed")
			return
		}
		if n > 0 {
			logger.WithFields(map[string]interface{}{"expired": n}).Info("expired stale invites")
		}
	}
}

// buildVault assembles the token store: a chunked encrypted file store over
// the configured value ceiling, layered on the legacy plaintext store as
// migration source. Without a secret the store is memory-backed and tokens
// do not survive a restart.
func buildVault(cfg config.SecureStore, logger *logging.Logger) (*securestore.Migrating, error) {
	var backend securestore.KeyValue
	if cfg.Secret == "" {
		logger.Warn("SECURE_STORE_SECRET not set; token store is in-memory only")
		backend = securestore.NewMemory(cfg.ValueLimit)
	} else {
		encrypted, err := securestore.NewEncryptedFile(cfg.Path, []byte(cfg.Secret))
		if err != nil {
			return nil, err
		}
		backend = encrypted
	}

	chunked, err := securestore.NewChunked(backend, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	legacy, err := securestore.NewPlainFile(cfg.LegacyPath)
	if err != nil {
		return nil, err
	}
	return securestore.NewMigrating(chunked, legacy, logger), nil
}
