package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven/mocks"
)

// mockTaskQueue records enqueued tasks.
type mockTaskQueue struct {
	mu       sync.Mutex
	enqueued []*domain.Task
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, task)
	return nil
}

func (m *mockTaskQueue) Dequeue(ctx context.Context) (*domain.Task, error) {
	return nil, nil
}

func (m *mockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	return nil, nil
}

func (m *mockTaskQueue) Ack(ctx context.Context, taskID string) error  { return nil }
func (m *mockTaskQueue) Nack(ctx context.Context, taskID, _ string) error { return nil }
func (m *mockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return nil, nil
}
func (m *mockTaskQueue) Ping(ctx context.Context) error { return nil }
func (m *mockTaskQueue) Close() error                   { return nil }

func (m *mockTaskQueue) tasks() []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Task(nil), m.enqueued...)
}

// mockLock is a DistributedLock with a scriptable acquire result.
type mockLock struct {
	mu       sync.Mutex
	acquire  bool
	releases int
}

func (m *mockLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquire, nil
}

func (m *mockLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	return nil
}

func (m *mockLock) Extend(ctx context.Context, name string, ttl time.Duration) error { return nil }
func (m *mockLock) Ping(ctx context.Context) error                                   { return nil }

func seedSchedulerConnection(t *testing.T, store *mocks.MockConnectionStore, userID string, platform domain.Platform, lastSynced *time.Time) *domain.SocialConnection {
	t.Helper()
	conn := &domain.SocialConnection{
		UserID:         userID,
		Platform:       platform,
		PlatformUserID: "puid-" + userID,
		Username:       "user",
		AccessToken:    "token",
		RefreshToken:   "refresh",
		TokenExpiresAt: time.Now().Add(time.Hour),
		LastSyncedAt:   lastSynced,
	}
	if err := store.Upsert(context.Background(), conn); err != nil {
		t.Fatalf("seed connection: %v", err)
	}
	return conn
}

func TestScheduler_EnqueuesStaleConnections(t *testing.T) {
	store := mocks.NewMockConnectionStore()
	queue := &mockTaskQueue{}

	stale := time.Now().Add(-24 * time.Hour)
	fresh := time.Now().Add(-time.Minute)
	seedSchedulerConnection(t, store, "user-1", domain.PlatformInstagram, &stale)
	seedSchedulerConnection(t, store, "user-1", domain.PlatformTikTok, &fresh)
	seedSchedulerConnection(t, store, "user-2", domain.PlatformTikTok, nil) // never synced

	s := NewScheduler(SchedulerConfig{
		ConnectionStore: store,
		TaskQueue:       queue,
		Logger:          discardLogger(),
		RefreshAfter:    6 * time.Hour,
	})

	s.checkAndEnqueue(context.Background())

	tasks := queue.tasks()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Type != domain.TaskTypeSyncConnection {
			t.Errorf("expected sync_connection task, got %s", task.Type)
		}
		if task.UserID() == "" {
			t.Error("expected user_id in payload")
		}
		if _, err := task.TaskPlatform(); err != nil {
			t.Errorf("expected valid platform in payload: %v", err)
		}
	}
}

func TestScheduler_SkipsExpiredWithoutRefreshToken(t *testing.T) {
	store := mocks.NewMockConnectionStore()
	queue := &mockTaskQueue{}

	stale := time.Now().Add(-24 * time.Hour)
	conn := seedSchedulerConnection(t, store, "user-1", domain.PlatformInstagram, &stale)
	conn.RefreshToken = ""
	conn.TokenExpiresAt = time.Now().Add(-time.Hour)
	if err := store.Upsert(context.Background(), conn); err != nil {
		t.Fatalf("update connection: %v", err)
	}

	s := NewScheduler(SchedulerConfig{
		ConnectionStore: store,
		TaskQueue:       queue,
		Logger:          discardLogger(),
	})

	s.checkAndEnqueue(context.Background())

	if got := len(queue.tasks()); got != 0 {
		t.Errorf("expected no tasks for a dead connection, got %d", got)
	}
}

func TestScheduler_LockHeldElsewhereSkipsCycle(t *testing.T) {
	store := mocks.NewMockConnectionStore()
	queue := &mockTaskQueue{}

	stale := time.Now().Add(-24 * time.Hour)
	seedSchedulerConnection(t, store, "user-1", domain.PlatformInstagram, &stale)

	lock := &mockLock{acquire: false}
	s := NewScheduler(SchedulerConfig{
		ConnectionStore: store,
		TaskQueue:       queue,
		Lock:            lock,
		Logger:          discardLogger(),
	})

	s.checkAndEnqueue(context.Background())

	if got := len(queue.tasks()); got != 0 {
		t.Errorf("expected no tasks while lock held elsewhere, got %d", got)
	}
}

func TestScheduler_ReleasesLockAfterCycle(t *testing.T) {
	store := mocks.NewMockConnectionStore()
	queue := &mockTaskQueue{}
	lock := &mockLock{acquire: true}

	s := NewScheduler(SchedulerConfig{
		ConnectionStore: store,
		TaskQueue:       queue,
		Lock:            lock,
		Logger:          discardLogger(),
	})

	s.checkAndEnqueue(context.Background())

	lock.mu.Lock()
	defer lock.mu.Unlock()
	if lock.releases != 1 {
		t.Errorf("expected 1 release, got %d", lock.releases)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	store := mocks.NewMockConnectionStore()
	queue := &mockTaskQueue{}

	s := NewScheduler(SchedulerConfig{
		ConnectionStore: store,
		TaskQueue:       queue,
		Logger:          discardLogger(),
		PollInterval:    time.Hour, // only the startup cycle runs
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Second start is a no-op
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
	// Second stop is a no-op
	s.Stop()
}
