package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(ctx context.Context, key string) (string, error) {
	value, exists := f.values[key]
	if !exists {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "mk:test:lock", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	ctx := context.Background()

	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}

	second, err := NewRedisLock(store, "mk:test:lock", time.Minute)
	if err != nil {
		t.Fatalf("construct second lock: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail, ok=%v err=%v", ok, err)
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release to succeed, ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyOwnValue(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "mk:test:lock", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	ctx := context.Background()
	if ok, err := lock.Acquire(ctx); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	// Another owner rewrote the key after a TTL lapse.
	store.values["mk:test:lock"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["mk:test:lock"] != "someone-else" {
		t.Fatal("release removed a lock owned by another instance")
	}
}

func TestRedisLockReleaseToleratesMissingKey(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "mk:test:lock", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	ctx := context.Background()
	if ok, err := lock.Acquire(ctx); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if err := store.Del(ctx, "mk:test:lock"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("expected release of an expired lock to succeed: %v", err)
	}
}
