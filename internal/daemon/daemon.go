// Package daemon coordinates the long-running payflow process: it holds the
// single-instance lock, owns the gateway lifecycle, and reports runtime
// status. Workflow semantics live in their own packages; the daemon focuses
// on startup, shutdown, and coordination.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"payflow/internal/config"
	"payflow/internal/dedup"
	"payflow/internal/gateway"
	"payflow/internal/logging"
)

// Daemon ties the gateway and its supporting stores into one lifecycle.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	gateway *gateway.Server
	dedup   *dedup.Store

	lockPath string
	lock     *flock.Flock

	startedAt time.Time
	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running   bool
	Addr      string
	LockPath  string
	StartedAt time.Time
	Uptime    time.Duration
}

// New constructs a daemon around an already-built gateway server.
func New(cfg *config.Config, srv *gateway.Server, deliveries *dedup.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if srv == nil {
		return nil, errors.New("gateway server is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	lockPath := filepath.Join(cfg.Logging.Dir, "payflowd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		gateway:  srv,
		dedup:    deliveries,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and brings the gateway up.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another payflow daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.gateway.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start gateway: %w", err)
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("payflow daemon started",
		slog.String("lock", d.lockPath),
		slog.String("address", d.gateway.Addr()))
	return nil
}

// Stop shuts the gateway down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.gateway.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("payflow daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.dedup != nil {
		return d.dedup.Close()
	}
	return nil
}

// Status reports current runtime information.
func (d *Daemon) Status() Status {
	status := Status{
		Running:  d.running.Load(),
		LockPath: d.lockPath,
	}
	if status.Running {
		status.Addr = d.gateway.Addr()
		status.StartedAt = d.startedAt
		status.Uptime = time.Since(d.startedAt)
	}
	return status
}
