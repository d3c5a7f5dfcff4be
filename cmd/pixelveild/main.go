package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Roelanb/pixelveil/internal/api"
	"github.com/Roelanb/pixelveil/internal/config"
	"github.com/Roelanb/pixelveil/internal/ledger"
	"github.com/Roelanb/pixelveil/internal/observability"
	"github.com/Roelanb/pixelveil/internal/watch"
)

var (
	configPath = flag.String("config", "config.json", "Path to config JSON file")
	logLevel   = flag.String("log-level", "", "Log level: debug|info|warn|error (overrides config)")
	apiAddr    = flag.String("api-addr", "", "HTTP listen address (overrides config)")
)

// Backend version injected at build time with: -ldflags "-X 'main.version=1.2.3'"
var version = "dev"

const (
	defaultLedgerPath = "/var/lib/pixelveil/ledger.db"
	pruneInterval     = time.Hour
)

type loggerIface interface {
	Infow(string, ...any)
	Errorw(string, ...any)
}

// controlPlane owns the effective config and pushes changes to the logger
// level and the API server.
type controlPlane struct {
	log     loggerIface
	level   zap.AtomicLevel
	srv     *api.Server
	cfgPath string

	mu  sync.RWMutex
	cfg *config.Config
}

func (c *controlPlane) Reload(ctx context.Context) error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return err
	}
	c.apply(cfg)
	return nil
}

func (c *controlPlane) GetConfig() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *controlPlane) ApplyConfig(ctx context.Context, raw []byte) error {
	cfg, err := config.Parse(raw)
	if err != nil {
		return err
	}
	// persist to disk to keep single source of truth
	if err := config.Save(c.cfgPath, cfg); err != nil {
		return err
	}
	c.apply(cfg)
	return nil
}

func (c *controlPlane) apply(cfg *config.Config) {
	overrideFromFlags(cfg)
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	c.level.SetLevel(observability.ParseLevel(cfg.Logging.Level))
	if c.srv != nil {
		c.srv.Apply(*cfg)
	}
	c.log.Infow("config applied",
		"log_level", cfg.Logging.Level,
		"max_upload_bytes", cfg.Limits.MaxUploadBytes,
		"kdf_iterations", cfg.Crypto.KDFIterations,
	)
}

func (c *controlPlane) retention() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.cfg.Ledger.RetentionHours) * time.Hour
}

func overrideFromFlags(cfg *config.Config) {
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	} else {
		cfg.Logging.Level = observability.EnvLogLevel(cfg.Logging.Level)
	}
	if *apiAddr != "" {
		cfg.Server.Listen = *apiAddr
	}
}

// watchConfig reloads the config whenever the file settles after a change.
// A config that fails to parse is logged and the previous one stays active.
func watchConfig(ctx context.Context, log loggerIface, ctrl *controlPlane, path string) (*watch.Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := watch.New(watch.Options{
		Path:          abs,
		Debounce:      250 * time.Millisecond,
		Stabilization: 200 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	events, err := w.Start(ctx)
	if err != nil {
		return nil, err
	}
	go func() {
		for ev := range events {
			if err := ctrl.Reload(ctx); err != nil {
				log.Errorw("config reload failed, keeping previous config", "path", ev.Path, "error", err)
				continue
			}
			log.Infow("config reloaded", "path", ev.Path)
		}
	}()
	return w, nil
}

// pruneLoop removes ledger records older than the retention window, once at
// startup and then hourly. Zero retention keeps everything.
func pruneLoop(ctx context.Context, log loggerIface, store ledger.Store, retention func() time.Duration) {
	prune := func() {
		keep := retention()
		if keep <= 0 {
			return
		}
		n, err := store.Prune(time.Now().Add(-keep))
		if err != nil {
			log.Errorw("ledger prune failed", "error", err)
			return
		}
		if n > 0 {
			log.Infow("ledger pruned", "removed", n, "retention", keep.String())
		}
	}
	prune()
	t := time.NewTicker(pruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			prune()
		}
	}
}

func main() {
	flag.Parse()
	api.Version = version

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	overrideFromFlags(cfg)

	logger, level := observability.NewLogger(observability.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	defer logger.Sync() //nolint:errcheck
	logger.Infow("config loaded", "path", *configPath, "version", cfg.Version, "build", version)

	ledgerPath := cfg.Ledger.Path
	if ledgerPath == "" {
		ledgerPath = defaultLedgerPath
	}
	store, err := ledger.OpenBBolt(ledgerPath)
	if err != nil {
		logger.Errorw("failed to open ledger", "path", ledgerPath, "error", err)
		fmt.Fprintf(os.Stderr, "Ledger error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// Root context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := &controlPlane{log: logger, level: level, cfgPath: *configPath, cfg: cfg}
	apiSrv := api.New(logger, ctrl, store, *cfg)
	ctrl.srv = apiSrv
	if err := apiSrv.Start(ctx); err != nil {
		logger.Errorw("failed to start api server", "addr", cfg.Server.Listen, "error", err)
		fmt.Fprintf(os.Stderr, "API error: %v\n", err)
		os.Exit(1)
	}

	go pruneLoop(ctx, logger, store, ctrl.retention)

	if w, err := watchConfig(ctx, logger, ctrl, *configPath); err != nil {
		logger.Warnw("config watcher disabled", "path", *configPath, "error", err)
	} else {
		defer w.Close()
	}

	// Wait for termination signal
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Infow("signal received, shutting down", "signal", sig.String())

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := apiSrv.Shutdown(shCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorw("graceful shutdown failed", "error", err)
	}
	cancel()
	logger.Infow("shutdown complete")
}
