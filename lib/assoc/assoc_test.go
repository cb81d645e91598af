package assoc

import (
	"errors"
	"testing"
)

func TestMapStorePutGet(t *testing.T) {
	s := NewMap[string, int]()

	if s.Has("a") {
		t.Error("empty store should not contain key")
	}

	if err := s.Put("a", 1); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if !s.Has("a") {
		t.Error("store should contain key after Put")
	}

	v, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != 1 {
		t.Errorf("expected 1, got %d", v)
	}

	if s.Len() != 1 {
		t.Errorf("expected length 1, got %d", s.Len())
	}
}

func TestMapStorePutExisting(t *testing.T) {
	s := NewMap[string, int]()

	if err := s.Put("a", 1); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	err := s.Put("a", 2)
	if !errors.Is(err, ErrKeyExists) {
		t.Errorf("expected ErrKeyExists, got %v", err)
	}

	// the failed Put must not have changed the value
	v, _ := s.Get("a")
	if v != 1 {
		t.Errorf("value changed by failed Put: %d", v)
	}
}

func TestMapStoreDel(t *testing.T) {
	s := NewMap[string, int]()

	_, err := s.Del("missing")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if err := s.Put("a", 42); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	v, err := s.Del("a")
	if err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}

	if s.Has("a") {
		t.Error("key should be gone after Del")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got length %d", s.Len())
	}
}

func TestMapStoreGetMissing(t *testing.T) {
	s := NewMap[string, int]()

	_, err := s.Get("missing")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMapStoreDestroy(t *testing.T) {
	s := NewMap[string, int]()

	if err := s.Destroy(); err != nil {
		t.Errorf("Destroy on empty store failed: %v", err)
	}

	if err := s.Put("a", 1); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	err := s.Destroy()
	if !errors.Is(err, ErrNotEmpty) {
		t.Errorf("expected ErrNotEmpty, got %v", err)
	}

	if _, err := s.Del("a"); err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if err := s.Destroy(); err != nil {
		t.Errorf("Destroy after draining failed: %v", err)
	}
}
