// notifyd runs a headless support console session: it holds the realtime
// connection, keeps the notification store current, optionally archives
// notifications to PostgreSQL, and serves the store over HTTP.
// Usage: go run ./cmd/notifyd --config configs/notifyd.local.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/supportdesk/internal/auth"
	"github.com/rickgao/supportdesk/internal/config"
	"github.com/rickgao/supportdesk/internal/console"
	"github.com/rickgao/supportdesk/internal/database"
	"github.com/rickgao/supportdesk/internal/model"
	"github.com/rickgao/supportdesk/internal/version"
	"github.com/rickgao/supportdesk/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/notifyd.local.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log).With("instance_id", cfg.Instance.ID)
	slog.SetDefault(logger)

	logger.Info("starting notifyd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"realtime_url", cfg.Realtime.URL,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("notifyd failed", "error", err)
		os.Exit(1)
	}
	logger.Info("notifyd stopped")
}

func run(cfg *config.ConsoleConfig, logger *slog.Logger) error {
	creds, err := auth.LoadCredentials(cfg.Auth.Token, cfg.Auth.TokenFile, &model.User{
		ID:      cfg.Auth.User.ID,
		Name:    cfg.Auth.User.Name,
		Email:   cfg.Auth.User.Email,
		IsAdmin: cfg.Auth.User.IsAdmin,
	})
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	// Create context with cancellation on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := console.New(console.ConfigFrom(cfg), creds, logger)

	h := &handler{console: c, logger: logger}

	g, gctx := errgroup.WithContext(ctx)

	var archive stopper

	if cfg.Archive.Enabled {
		logger.Info("connecting to archive database",
			"host", cfg.Archive.Database.Host,
			"port", cfg.Archive.Database.Port,
			"database", cfg.Archive.Database.Name,
		)

		pool, err := database.OpenArchive(ctx, cfg.Archive.Database)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer pool.Close()

		w := writer.NewNotificationWriter(writer.Config{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval,
			BufferSize:    cfg.Archive.BufferSize,
		}, pool, logger.With("component", "archive"))
		if err := w.Start(gctx); err != nil {
			return fmt.Errorf("start archive writer: %w", err)
		}
		c.Store().Subscribe(w.Observe)

		h.archive = pool
		h.archiveStats = w.Stats
		archive = w
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return shutdown(shutdownCtx, c, archive, server)
	})

	// Reconnect with the new token whenever the token file is rotated
	if cfg.Auth.Token == "" && cfg.Auth.TokenFile != "" {
		tw, err := auth.NewTokenWatcher(cfg.Auth.TokenFile, creds, c.Reconnect, logger.With("component", "auth"))
		if err != nil {
			return fmt.Errorf("watch token file: %w", err)
		}
		g.Go(func() error {
			return tw.Run(gctx)
		})
	}

	c.Initialize()

	logger.Info("notifyd running",
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
	)

	return g.Wait()
}

type stopper interface {
	Stop(ctx context.Context) error
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown stops the pipeline front to back in one sequence: the console
// first so no notification reaches the archive after its final flush, then
// the archive writer, then the HTTP server. archive is nil when disabled.
func shutdown(ctx context.Context, c interface{ Close() }, archive stopper, server shutdowner) error {
	c.Close()

	var errs []error
	if archive != nil {
		if err := archive.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop archive writer: %w", err))
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	return errors.Join(errs...)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
