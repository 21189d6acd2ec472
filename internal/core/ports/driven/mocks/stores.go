// Package mocks provides in-memory implementations of the driven ports
// for service tests.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// MockOAuthStateStore is an in-memory OAuthStateStore.
type MockOAuthStateStore struct {
	mu     sync.RWMutex
	states map[string]*driven.OAuthState // keyed by state value

	SaveErr error
}

func NewMockOAuthStateStore() *MockOAuthStateStore {
	return &MockOAuthStateStore{states: make(map[string]*driven.OAuthState)}
}

func (m *MockOAuthStateStore) Save(ctx context.Context, state *driven.OAuthState) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// One flow per (user, platform): drop any previous state row.
	for k, v := range m.states {
		if v.UserID == state.UserID && v.Platform == state.Platform {
			delete(m.states, k)
		}
	}
	m.states[state.State] = state
	return nil
}

func (m *MockOAuthStateStore) Consume(ctx context.Context, state string, platform domain.Platform) (*driven.OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[state]
	if !ok || st.Platform != platform || time.Now().After(st.ExpiresAt) {
		return nil, nil
	}
	delete(m.states, state)
	return st, nil
}

func (m *MockOAuthStateStore) Cleanup(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, v := range m.states {
		if time.Now().After(v.ExpiresAt) {
			delete(m.states, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored states.
func (m *MockOAuthStateStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

// MockConnectionStore is an in-memory ConnectionStore.
type MockConnectionStore struct {
	mu          sync.RWMutex
	connections map[string]*domain.SocialConnection // keyed by ID
	nextID      int

	UpsertErr       error
	UpdateTokensErr error
}

func NewMockConnectionStore() *MockConnectionStore {
	return &MockConnectionStore{connections: make(map[string]*domain.SocialConnection)}
}

func (m *MockConnectionStore) Upsert(ctx context.Context, conn *domain.SocialConnection) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.connections {
		if existing.UserID == conn.UserID && existing.Platform == conn.Platform {
			conn.ID = existing.ID
			conn.CreatedAt = existing.CreatedAt
			m.connections[conn.ID] = conn
			return nil
		}
	}
	if conn.ID == "" {
		m.nextID++
		conn.ID = fmt.Sprintf("conn-%d", m.nextID)
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now()
	}
	m.connections[conn.ID] = conn
	return nil
}

func (m *MockConnectionStore) Get(ctx context.Context, userID string, platform domain.Platform) (*domain.SocialConnection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conn := range m.connections {
		if conn.UserID == userID && conn.Platform == platform {
			c := *conn
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockConnectionStore) ListByUser(ctx context.Context, userID string) ([]*domain.SocialConnection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.SocialConnection
	for _, conn := range m.connections {
		if conn.UserID == userID {
			c := *conn
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockConnectionStore) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	if m.UpdateTokensErr != nil {
		return m.UpdateTokensErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrNotFound
	}
	conn.AccessToken = accessToken
	conn.RefreshToken = refreshToken
	conn.TokenExpiresAt = expiresAt
	return nil
}

func (m *MockConnectionStore) ListDueForSync(ctx context.Context, cutoff time.Time, limit int) ([]*domain.SocialConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var conns []*domain.SocialConnection
	for _, conn := range m.connections {
		if conn.LastSyncedAt == nil || conn.LastSyncedAt.Before(cutoff) {
			c := *conn
			conns = append(conns, &c)
		}
		if limit > 0 && len(conns) >= limit {
			break
		}
	}
	return conns, nil
}

func (m *MockConnectionStore) TouchLastSynced(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	conn.LastSyncedAt = &now
	return nil
}

func (m *MockConnectionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.connections[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.connections, id)
	return nil
}

// MockImportStore is an in-memory ImportStore.
type MockImportStore struct {
	mu      sync.RWMutex
	imports map[string]*domain.SocialImport // keyed by connectionID+postID
	nextID  int

	RecordErr error
}

func NewMockImportStore() *MockImportStore {
	return &MockImportStore{imports: make(map[string]*domain.SocialImport)}
}

func importKey(connectionID, platformPostID string) string {
	return connectionID + "|" + platformPostID
}

func (m *MockImportStore) Record(ctx context.Context, imp *domain.SocialImport) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := importKey(imp.ConnectionID, imp.PlatformPostID)
	if _, ok := m.imports[key]; ok {
		return nil // duplicate, silently ignored
	}
	if imp.ID == "" {
		m.nextID++
		imp.ID = fmt.Sprintf("imp-%d", m.nextID)
	}
	m.imports[key] = imp
	return nil
}

func (m *MockImportStore) ListPostIDs(ctx context.Context, connectionID string) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make(map[string]struct{})
	for _, imp := range m.imports {
		if imp.ConnectionID == connectionID {
			ids[imp.PlatformPostID] = struct{}{}
		}
	}
	return ids, nil
}

func (m *MockImportStore) DeleteByConnection(ctx context.Context, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, imp := range m.imports {
		if imp.ConnectionID == connectionID {
			delete(m.imports, key)
		}
	}
	return nil
}

// Count reports the number of ledger rows.
func (m *MockImportStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.imports)
}

// MockPostStore is an in-memory PostStore.
type MockPostStore struct {
	mu     sync.RWMutex
	Posts  []*domain.Post
	Media  []*domain.Media
	nextID int

	CreatePostErr error

	// FailOnContent makes CreatePost fail for one specific post body,
	// for failure isolation tests.
	FailOnContent string
}

func NewMockPostStore() *MockPostStore {
	return &MockPostStore{}
}

func (m *MockPostStore) CreatePost(ctx context.Context, post *domain.Post, media *domain.Media) error {
	if m.CreatePostErr != nil {
		return m.CreatePostErr
	}
	if m.FailOnContent != "" && post.Content == m.FailOnContent {
		return fmt.Errorf("create post: induced failure")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	post.ID = fmt.Sprintf("post-%d", m.nextID)
	post.CreatedAt = time.Now()
	m.Posts = append(m.Posts, post)
	if media != nil {
		m.nextID++
		media.ID = fmt.Sprintf("media-%d", m.nextID)
		media.PostID = post.ID
		media.CreatedAt = time.Now()
		m.Media = append(m.Media, media)
	}
	return nil
}

// MockUserStore is an in-memory UserStore.
type MockUserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{users: make(map[string]*domain.User)}
}

func (m *MockUserStore) Save(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserStore) UpdateLastLogin(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

// MockSessionStore is an in-memory SessionStore.
type MockSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]*domain.Session)}
}

func (m *MockSessionStore) Save(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

// Compile-time interface checks.
var (
	_ driven.OAuthStateStore = (*MockOAuthStateStore)(nil)
	_ driven.ConnectionStore = (*MockConnectionStore)(nil)
	_ driven.ImportStore     = (*MockImportStore)(nil)
	_ driven.PostStore       = (*MockPostStore)(nil)
	_ driven.UserStore       = (*MockUserStore)(nil)
	_ driven.SessionStore    = (*MockSessionStore)(nil)
)
