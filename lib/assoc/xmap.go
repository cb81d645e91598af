package assoc

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// mapStore implements Store on top of xsync.MapOf
type mapStore[K comparable, V any] struct {
	data *xsync.MapOf[K, V]
}

// NewMap creates an empty Store backed by an xsync.MapOf.
//
// Thread-safety: the individual operations are safe for concurrent use, but
// the abort-style contract (check-then-act against sentinel errors) is only
// meaningful for a caller that serializes its own accesses. The ordered table
// layered on top is such a caller.
func NewMap[K comparable, V any]() Store[K, V] {
	return &mapStore[K, V]{
		data: xsync.NewMapOf[K, V](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see assoc.Store)
// --------------------------------------------------------------------------

func (s *mapStore[K, V]) Has(key K) bool {
	_, ok := s.data.Load(key)
	return ok
}

func (s *mapStore[K, V]) Get(key K) (V, error) {
	value, ok := s.data.Load(key)
	if !ok {
		var zero V
		return zero, fmt.Errorf("get %v: %w", key, ErrKeyNotFound)
	}
	return value, nil
}

func (s *mapStore[K, V]) Put(key K, value V) error {
	if _, loaded := s.data.LoadOrStore(key, value); loaded {
		return fmt.Errorf("put %v: %w", key, ErrKeyExists)
	}
	return nil
}

func (s *mapStore[K, V]) Del(key K) (V, error) {
	value, ok := s.data.LoadAndDelete(key)
	if !ok {
		var zero V
		return zero, fmt.Errorf("del %v: %w", key, ErrKeyNotFound)
	}
	return value, nil
}

func (s *mapStore[K, V]) Len() int {
	return s.data.Size()
}

func (s *mapStore[K, V]) Destroy() error {
	if n := s.data.Size(); n > 0 {
		return fmt.Errorf("destroy with %d live entries: %w", n, ErrNotEmpty)
	}
	return nil
}
