package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/egress"
	"lectern/internal/logging"
	"lectern/internal/mediaurl"
	"lectern/internal/recording"
	"lectern/internal/server"
	"lectern/internal/session"
	"lectern/internal/store"
	"lectern/internal/transcript"
)

// Run wires the full daemon runtime and blocks until the context is cancelled
// or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "lecternd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open datastore", logging.Error(err))
		return err
	}

	d, err := Build(cfg, st, logger)
	if err != nil {
		_ = st.Close()
		return err
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("lectern daemon shutting down")
	return nil
}

// Build assembles the daemon's component graph on top of an open datastore.
func Build(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	resolver := session.NewResolver(st, logger)
	router := egress.NewRouter(cfg)
	manager := recording.NewManager(cfg, st, resolver, router, logger)
	normalizer := mediaurl.New(cfg.Storage, logger)
	reconciler := recording.NewReconciler(st, normalizer, logger)
	capture := transcript.NewCapture(st, logger)

	var d *Daemon
	srv := server.New(cfg, resolver, manager, reconciler, capture, func(ctx context.Context) api.DaemonStatus {
		return d.Status(ctx)
	}, logger)

	d, err := New(cfg, st, srv, logger)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
