package idempotency

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	return s.data[key], nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = fmt.Sprint(value)
	return true, nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("lq:idempotency:%s:%s", scope, id)
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func TestNewManagerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatalf("expected nil store to fail")
	}
	if _, err := NewManager(newMemoryStore(), -time.Second); err == nil {
		t.Fatalf("expected negative ttl to fail")
	}
	if _, err := NewManager(newMemoryStore(), time.Hour); err != nil {
		t.Fatalf("NewManager: %v", err)
	}
}

func TestCheckAndMarkProcessed(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(newMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()
	eventID := uuid.New()

	processed, err := manager.CheckAndMarkProcessed(ctx, "snapshots", eventID)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if processed {
		t.Fatalf("first delivery must not report processed")
	}

	processed, err = manager.CheckAndMarkProcessed(ctx, "snapshots", eventID)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !processed {
		t.Fatalf("redelivery must report processed")
	}

	processed, err = manager.CheckAndMarkProcessed(ctx, "notifications", eventID)
	if err != nil {
		t.Fatalf("other consumer: %v", err)
	}
	if processed {
		t.Fatalf("consumers must not share processed markers")
	}
}

func TestDeleteAllowsRetry(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(newMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()
	eventID := uuid.New()

	if _, err := manager.CheckAndMarkProcessed(ctx, "snapshots", eventID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := manager.Delete(ctx, "snapshots", eventID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	processed, err := manager.CheckAndMarkProcessed(ctx, "snapshots", eventID)
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if processed {
		t.Fatalf("cleared marker must allow the retry through")
	}
}

func TestProcessedKeyValidation(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(newMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()

	if _, err := manager.CheckAndMarkProcessed(ctx, "", uuid.New()); err == nil {
		t.Fatalf("expected empty consumer to fail")
	}
	if _, err := manager.CheckAndMarkProcessed(ctx, "snapshots", uuid.Nil); err == nil {
		t.Fatalf("expected nil event id to fail")
	}
}
