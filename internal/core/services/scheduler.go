package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// Scheduler enqueues background refresh tasks for stale connections.
// It runs on worker nodes; connections whose last sync is older than
// RefreshAfter get a sync_connection task each cycle.
//
// For multi-worker deployments, configure a DistributedLock to prevent
// duplicate task enqueuing across instances.
type Scheduler struct {
	connections driven.ConnectionStore
	taskQueue   driven.TaskQueue
	lock        driven.DistributedLock
	logger      *slog.Logger

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	interval     time.Duration
	refreshAfter time.Duration
	batchSize    int

	lockTTL      time.Duration
	lockRequired bool
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	ConnectionStore driven.ConnectionStore
	TaskQueue       driven.TaskQueue
	Lock            driven.DistributedLock // Optional: coordination across instances
	Logger          *slog.Logger
	PollInterval    time.Duration // How often to check for stale connections (default: 5m)
	RefreshAfter    time.Duration // Connection staleness threshold (default: 6h)
	BatchSize       int           // Max connections enqueued per cycle (default: 100)
	LockTTL         time.Duration // TTL for the distributed lock (default: 2x poll interval)
	LockRequired    bool          // If true, skip the cycle when the lock cannot be acquired
}

const schedulerLockName = "sync-scheduler"

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.PollInterval
	if interval == 0 {
		interval = 5 * time.Minute
	}

	refreshAfter := cfg.RefreshAfter
	if refreshAfter == 0 {
		refreshAfter = 6 * time.Hour
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * interval
	}

	lockRequired := cfg.LockRequired
	if cfg.Lock != nil && !cfg.LockRequired {
		// A configured lock defaults to required
		lockRequired = true
	}

	return &Scheduler{
		connections:  cfg.ConnectionStore,
		taskQueue:    cfg.TaskQueue,
		lock:         cfg.Lock,
		logger:       logger,
		interval:     interval,
		refreshAfter: refreshAfter,
		batchSize:    batchSize,
		lockTTL:      lockTTL,
		lockRequired: lockRequired,
	}
}

// Start begins the scheduler loop.
// It runs until Stop is called or context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("scheduler starting",
		"poll_interval", s.interval,
		"refresh_after", s.refreshAfter,
	)

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.checkAndEnqueue(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.checkAndEnqueue(ctx)
		}
	}
}

// checkAndEnqueue enqueues a refresh task for each stale connection.
// If a distributed lock is configured, it acquires the lock first to
// prevent duplicate enqueuing across scheduler instances.
func (s *Scheduler) checkAndEnqueue(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, schedulerLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire scheduler lock", "error", err)
			if s.lockRequired {
				return // Skip this cycle
			}
		} else if !acquired {
			s.logger.Debug("scheduler lock held by another instance, skipping cycle")
			return
		} else {
			defer func() {
				if err := s.lock.Release(ctx, schedulerLockName); err != nil {
					s.logger.Warn("failed to release scheduler lock", "error", err)
				}
			}()
		}
	}

	cutoff := time.Now().Add(-s.refreshAfter)
	conns, err := s.connections.ListDueForSync(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Error("failed to list stale connections", "error", err)
		return
	}

	for _, conn := range conns {
		// An expired connection without a refresh token needs the user
		// to reconnect; enqueuing it would fail every cycle.
		if conn.TokenExpired() && conn.RefreshToken == "" {
			s.logger.Debug("skipping expired connection",
				"connection_id", conn.ID,
				"platform", conn.Platform,
			)
			continue
		}

		task := domain.NewSyncConnectionTask(conn.UserID, conn.Platform)

		if err := s.taskQueue.Enqueue(ctx, task); err != nil {
			s.logger.Error("failed to enqueue refresh task",
				"connection_id", conn.ID,
				"platform", conn.Platform,
				"error", err,
			)
			continue
		}

		s.logger.Info("enqueued refresh task",
			"task_id", task.ID,
			"connection_id", conn.ID,
			"platform", conn.Platform,
		)
	}
}
