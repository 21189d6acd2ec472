package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	q, err := NewQueue(client, "test-worker")
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	return q
}

func TestQueue_EnqueueDequeue(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	task := domain.NewSyncConnectionTask("user-1", domain.PlatformInstagram)
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a task")
	}
	if got.ID != task.ID {
		t.Errorf("expected task %s, got %s", task.ID, got.ID)
	}
	if got.Status != domain.TaskStatusProcessing {
		t.Errorf("expected processing status, got %s", got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", got.Attempts)
	}
	if got.UserID() != "user-1" {
		t.Errorf("expected user-1, got %q", got.UserID())
	}
	platform, err := got.TaskPlatform()
	if err != nil || platform != domain.PlatformInstagram {
		t.Errorf("expected instagram platform, got %v (%v)", platform, err)
	}
}

func TestQueue_DequeueEmpty(t *testing.T) {
	q := newTestQueue(t)

	got, err := q.DequeueWithTimeout(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected no task, got %+v", got)
	}
}

func TestQueue_Ack(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	task := domain.NewSyncConnectionTask("user-1", domain.PlatformTikTok)
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := q.Ack(ctx, task.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed status, got %s", stored.Status)
	}

	// Nothing left to dequeue
	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected empty queue, got %+v", got)
	}
}

func TestQueue_NackRetries(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	task := domain.NewSyncConnectionTask("user-1", domain.PlatformInstagram)
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := q.Nack(ctx, task.ID, "provider timeout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("expected pending status for retry, got %s", stored.Status)
	}
	if stored.Error != "provider timeout" {
		t.Errorf("expected error message retained, got %q", stored.Error)
	}
	if !stored.ScheduledFor.After(time.Now()) {
		t.Error("expected retry to be scheduled with backoff")
	}
}

func TestQueue_NackExhaustedFails(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	task := domain.NewSyncConnectionTask("user-1", domain.PlatformInstagram)
	task.MaxAttempts = 1
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := q.Nack(ctx, task.ID, "still broken"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed status, got %s", stored.Status)
	}
}

func TestQueue_DelayedTaskNotVisible(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	task := domain.NewSyncConnectionTask("user-1", domain.PlatformInstagram)
	task.ScheduledFor = time.Now().Add(time.Hour)
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected delayed task to stay hidden, got %+v", got)
	}
}

func TestQueue_GetTaskMissing(t *testing.T) {
	q := newTestQueue(t)

	got, err := q.GetTask(context.Background(), "no-such-task")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing task, got %+v", got)
	}
}
