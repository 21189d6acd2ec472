// Package worker processes background refresh tasks from the task
// queue, running content syncs outside the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
	"github.com/engage-labs/engage-social/internal/core/ports/driving"
	"github.com/engage-labs/engage-social/internal/core/services"
)

// Worker processes tasks from the task queue.
// It runs the sync service for each refresh task.
type Worker struct {
	taskQueue   driven.TaskQueue
	syncService driving.SyncService
	connections driven.ConnectionStore
	scheduler   *services.Scheduler
	logger      *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config holds configuration for the worker.
type Config struct {
	TaskQueue      driven.TaskQueue
	SyncService    driving.SyncService
	Connections    driven.ConnectionStore
	Scheduler      *services.Scheduler
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent task processors
	DequeueTimeout int // Seconds to wait for a task before checking again
}

// New creates a new task worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		syncService:    cfg.SyncService,
		connections:    cfg.Connections,
		scheduler:      cfg.Scheduler,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	// Start the scheduler if provided
	if w.scheduler != nil {
		if err := w.scheduler.Start(ctx); err != nil {
			w.logger.Error("failed to start scheduler", "error", err)
		}
	}

	// Start worker goroutines
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	if w.scheduler != nil {
		w.scheduler.Stop()
	}

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

// processTask processes a single task.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type)
	logger.Info("processing task")

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeSyncConnection:
		err = w.handleSyncConnection(ctx, task, logger)
	case domain.TaskTypeSyncDue:
		err = w.handleSyncDue(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		// Retrying cannot fix a connection the user must re-link, so
		// those tasks complete instead of churning through attempts.
		if errors.Is(err, domain.ErrTokenExpired) || errors.Is(err, domain.ErrNotConnected) {
			logger.Warn("connection needs user attention, not retrying",
				"duration", duration,
				"error", err,
			)
			if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
				logger.Error("failed to ack task", "ack_error", ackErr)
			}
			return
		}

		logger.Error("task failed",
			"duration", duration,
			"error", err,
		)

		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)

	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleSyncConnection handles a sync_connection task.
func (w *Worker) handleSyncConnection(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	userID := task.UserID()
	if userID == "" {
		return fmt.Errorf("user_id not found in task payload")
	}
	platform, err := task.TaskPlatform()
	if err != nil {
		return fmt.Errorf("invalid platform in task payload: %w", err)
	}

	result, err := w.syncService.Sync(ctx, userID, platform)
	if err != nil {
		return err
	}

	logger.Info("background sync finished",
		"platform", platform,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return nil
}

// handleSyncDue fans out a sync_connection task per stale connection.
func (w *Worker) handleSyncDue(ctx context.Context, task *domain.Task) error {
	conns, err := w.connections.ListDueForSync(ctx, time.Now(), 100)
	if err != nil {
		return err
	}

	var failures int
	for _, conn := range conns {
		next := domain.NewSyncConnectionTask(conn.UserID, conn.Platform)
		if err := w.taskQueue.Enqueue(ctx, next); err != nil {
			w.logger.Error("failed to enqueue fan-out task",
				"connection_id", conn.ID,
				"error", err,
			)
			failures++
		}
	}

	if failures > 0 && failures == len(conns) {
		return fmt.Errorf("failed to enqueue all %d fan-out tasks", failures)
	}
	return nil
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
