package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"cineref/internal/catalog"
	"cineref/internal/config"
	"cineref/internal/deps"
	"cineref/internal/logging"
	"cineref/internal/mediaurl"
	"cineref/internal/preflight"
	"cineref/internal/resolve"
)

// Daemon hosts the resolver service behind the HTTP API and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *resolve.Service
	store    *catalog.Store
	urlCache *mediaurl.Cache
	api      *apiServer
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	CatalogDBPath string
	LockFilePath  string
	Dependencies  []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, resolver *resolve.Service, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || resolver == nil || logger == nil {
		return nil, errors.New("daemon requires config, resolver, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "cinerefd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		store:    store,
		logPath:  filepath.Join(cfg.Paths.LogDir, "cineref.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cineref daemon instance is already running")
	}

	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if result.Passed {
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("cineref daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("cineref daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// SetURLCache exposes the durable URL cache on the API. Optional; the cache
// endpoint reports empty when unset.
func (d *Daemon) SetURLCache(cache *mediaurl.Cache) {
	d.urlCache = cache
}

// APIAddr reports the bound API address, empty until Start succeeds.
func (d *Daemon) APIAddr() string {
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	catalogPath := ""
	if d.store != nil {
		catalogPath = d.store.Path()
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		CatalogDBPath: catalogPath,
		LockFilePath:  d.lockPath,
		Dependencies:  preflight.CheckSystemDeps(d.cfg),
	}
}
