package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "gate:dragons", []byte(`{"rule":"holds-any"}`), 0); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "gate:dragons")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"rule":"holds-any"}` {
		t.Errorf("unexpected value: %s", got)
	}
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreEmptyKey(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("get: expected ErrInvalidKey, got %v", err)
	}
	if err := s.Put(ctx, "", nil, 0); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("put: expected ErrInvalidKey, got %v", err)
	}
	if err := s.Delete(ctx, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("delete: expected ErrInvalidKey, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, "key"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	// Fake clock so expiry does not depend on wall time.
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Put(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Get(ctx, "key"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestMemoryStoreValueIsolation(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	original := []byte("value")
	if err := s.Put(ctx, "key", original, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	original[0] = 'X'

	got, err := s.Get(ctx, "key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("stored value mutated: %s", got)
	}

	got[0] = 'Y'
	again, err := s.Get(ctx, "key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(again) != "value" {
		t.Errorf("returned value aliased store: %s", again)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Closing twice is a no-op.
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	ctx := context.Background()
	if _, err := s.Get(ctx, "key"); !errors.Is(err, ErrClosed) {
		t.Errorf("get: expected ErrClosed, got %v", err)
	}
	if err := s.Put(ctx, "key", nil, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("put: expected ErrClosed, got %v", err)
	}
}
