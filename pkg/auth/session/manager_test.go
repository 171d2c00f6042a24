package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	sets map[string]map[string]struct{}
}

func newMockStore() *mockStore {
	return &mockStore{
		data: make(map[string]string),
		sets: make(map[string]map[string]struct{}),
	}
}

func (m *mockStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *mockStore) SAdd(_ context.Context, key string, members ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	for _, member := range members {
		set[fmt.Sprint(member)] = struct{}{}
	}
	return nil
}

func (m *mockStore) SRem(_ context.Context, key string, members ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range members {
		delete(m.sets[key], fmt.Sprint(member))
	}
	return nil
}

func (m *mockStore) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func (m *mockStore) UserSessionsKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerGenerateStoresSession(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	token, err := manager.Generate(ctx, "user-1", "access-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a refresh token")
	}
	if stored := store.data[store.AccessSessionKey("access-1")]; stored != token {
		t.Fatalf("expected stored token %q, got %q", token, stored)
	}
	if _, ok := store.sets[store.UserSessionsKey("user-1")]["access-1"]; !ok {
		t.Fatalf("expected session registered against the user")
	}

	if _, err := manager.Generate(ctx, "user-1", "  "); err == nil {
		t.Fatalf("expected blank access id to fail")
	}
}

func TestManagerRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	token, err := manager.Generate(ctx, "user-1", "access-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, "user-1", "access-1", token)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if newAccessID == "access-1" || newToken == token {
		t.Fatalf("rotation must mint a fresh pair")
	}
	if _, ok := store.data[store.AccessSessionKey("access-1")]; ok {
		t.Fatalf("old session must be deleted after rotation")
	}
	if stored := store.data[store.AccessSessionKey(newAccessID)]; stored != newToken {
		t.Fatalf("new session not stored")
	}

	userSet := store.sets[store.UserSessionsKey("user-1")]
	if _, ok := userSet["access-1"]; ok {
		t.Fatalf("old access id must leave the user set")
	}
	if _, ok := userSet[newAccessID]; !ok {
		t.Fatalf("new access id must join the user set")
	}

	if _, _, err := manager.Rotate(ctx, "user-1", "access-1", token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replaying the old pair must fail, got %v", err)
	}
}

func TestManagerRotateRejectsWrongToken(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "user-1", "access-1"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, _, err := manager.Rotate(ctx, "user-1", "access-1", "forged"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token, got %v", err)
	}
	if _, _, err := manager.Rotate(ctx, "user-1", "unknown", "whatever"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected unknown session to fail, got %v", err)
	}
	if _, _, err := manager.Rotate(ctx, "user-1", "", ""); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected blank inputs to fail, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "user-1", "access-1"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := manager.Revoke(ctx, "user-1", "access-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, ok := store.data[store.AccessSessionKey("access-1")]; ok {
		t.Fatalf("revoked session must be gone")
	}
	if _, ok := store.sets[store.UserSessionsKey("user-1")]["access-1"]; ok {
		t.Fatalf("revoked session must leave the user set")
	}
}

func TestManagerRevokeAllForUser(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := manager.Generate(ctx, "user-1", fmt.Sprintf("access-%d", i)); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	if _, err := manager.Generate(ctx, "user-2", "other-access"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if err := manager.RevokeAllForUser(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, ok := store.data[store.AccessSessionKey(fmt.Sprintf("access-%d", i))]; ok {
			t.Fatalf("session access-%d must be revoked", i)
		}
	}
	if _, ok := store.data[store.AccessSessionKey("other-access")]; !ok {
		t.Fatalf("another user's session must survive")
	}
}

func TestManagerHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "user-1", "access-1"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ok, err := manager.HasSession(ctx, "access-1")
	if err != nil || !ok {
		t.Fatalf("expected live session, got ok=%v err=%v", ok, err)
	}

	ok, err = manager.HasSession(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("expected missing session to report false, got ok=%v err=%v", ok, err)
	}

	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatalf("expected blank access id to fail")
	}
}
