package table

import (
	"fmt"
	"iter"

	"github.com/okvlab/okv/lib/assoc"
)

// --------------------------------------------------------------------------
// Cursor Type
// --------------------------------------------------------------------------

// Cursor is a traversal position: either a live key or the invalid cursor.
// The zero value is the invalid cursor.
type Cursor[K comparable] struct {
	key K
	ok  bool
}

// Valid reports whether the cursor points at a key.
func (c Cursor[K]) Valid() bool { return c.ok }

// Key returns the key the cursor points at (zero value if invalid).
func (c Cursor[K]) Key() K { return c.key }

// Get returns the key and whether the cursor is valid.
func (c Cursor[K]) Get() (K, bool) { return c.key, c.ok }

func cursorAt[K comparable](key K) Cursor[K] {
	return Cursor[K]{key: key, ok: true}
}

// --------------------------------------------------------------------------
// Node and Table Types
// --------------------------------------------------------------------------

// node is a table entry: the payload plus the key links that thread the
// insertion order through the unordered store. The link fields are owned
// exclusively by the table and are never handed out to callers.
type node[K comparable, V any] struct {
	payload V
	prev    Cursor[K]
	next    Cursor[K]
}

// Table is an insertion-ordered key-value table. See the package
// documentation for the ordering rules.
type Table[K comparable, V any] struct {
	store assoc.Store[K, *node[K, V]]
	head  Cursor[K]
	tail  Cursor[K]
}

// New returns an empty table.
func New[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{
		store: assoc.NewMap[K, *node[K, V]](),
	}
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// Len returns the number of live entries.
func (t *Table[K, V]) Len() int { return t.store.Len() }

// IsEmpty reports whether the table holds no entries.
func (t *Table[K, V]) IsEmpty() bool { return t.store.Len() == 0 }

// Has reports whether key is present.
func (t *Table[K, V]) Has(key K) bool { return t.store.Has(key) }

// Head returns a cursor at the oldest live key (invalid if empty).
func (t *Table[K, V]) Head() Cursor[K] { return t.head }

// Tail returns a cursor at the newest live key (invalid if empty).
func (t *Table[K, V]) Tail() Cursor[K] { return t.tail }

// Next returns a cursor at the successor of key. The cursor is invalid both
// when key is the tail and when key is absent; callers that need to tell the
// two apart check Has first.
func (t *Table[K, V]) Next(key K) Cursor[K] {
	n, err := t.store.Get(key)
	if err != nil {
		return Cursor[K]{}
	}
	return n.next
}

// Prev returns a cursor at the predecessor of key. The cursor is invalid
// both when key is the head and when key is absent; callers that need to
// tell the two apart check Has first.
func (t *Table[K, V]) Prev(key K) Cursor[K] {
	n, err := t.store.Get(key)
	if err != nil {
		return Cursor[K]{}
	}
	return n.prev
}

// Get returns the payload stored under key.
// Fails with assoc.ErrKeyNotFound if the key is absent.
func (t *Table[K, V]) Get(key K) (V, error) {
	n, err := t.store.Get(key)
	if err != nil {
		var zero V
		return zero, err
	}
	return n.payload, nil
}

// Update invokes fn with a pointer to the payload stored under key. The
// pointer is valid only for the duration of the call; only the payload is
// exposed, never the link fields.
// Fails with assoc.ErrKeyNotFound if the key is absent.
func (t *Table[K, V]) Update(key K, fn func(payload *V)) error {
	n, err := t.store.Get(key)
	if err != nil {
		return err
	}
	fn(&n.payload)
	return nil
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// Add inserts a new entry at the tail.
// Fails with assoc.ErrKeyExists if the key is already present; in that case
// nothing is mutated.
func (t *Table[K, V]) Add(key K, payload V) error {
	if t.store.Has(key) {
		return fmt.Errorf("add %v: %w", key, assoc.ErrKeyExists)
	}

	n := &node[K, V]{payload: payload}

	// Splice behind the current tail, if any
	if oldTail, ok := t.tail.Get(); ok {
		tailNode, err := t.store.Get(oldTail)
		if err != nil {
			// tail cursor always points at a live key
			panic(fmt.Sprintf("table: tail key %v missing from store", oldTail))
		}
		tailNode.next = cursorAt(key)
		n.prev = cursorAt(oldTail)
	}

	if !t.head.Valid() {
		t.head = cursorAt(key)
	}
	t.tail = cursorAt(key)

	if err := t.store.Put(key, n); err != nil {
		panic(fmt.Sprintf("table: put after presence check failed: %v", err))
	}
	return nil
}

// Take removes the entry stored under key and returns its payload together
// with cursors at both pre-removal neighbors. The next cursor is the only
// safe place to resume a forward traversal from: after Take returns, key no
// longer exists and Next(key) would report nothing.
// Fails with assoc.ErrKeyNotFound if the key is absent; in that case nothing
// is mutated.
func (t *Table[K, V]) Take(key K) (payload V, prev, next Cursor[K], err error) {
	n, err := t.store.Del(key)
	if err != nil {
		var zero V
		return zero, Cursor[K]{}, Cursor[K]{}, err
	}

	prev, next = n.prev, n.next

	// Splice the neighbors together
	if prevKey, ok := prev.Get(); ok {
		prevNode, gerr := t.store.Get(prevKey)
		if gerr != nil {
			panic(fmt.Sprintf("table: prev link %v missing from store", prevKey))
		}
		prevNode.next = next
	}
	if nextKey, ok := next.Get(); ok {
		nextNode, gerr := t.store.Get(nextKey)
		if gerr != nil {
			panic(fmt.Sprintf("table: next link %v missing from store", nextKey))
		}
		nextNode.prev = prev
	}

	// Move the out-of-band cursors off the removed key
	if t.head.Valid() && t.head.Key() == key {
		t.head = next
	}
	if t.tail.Valid() && t.tail.Key() == key {
		t.tail = prev
	}

	return n.payload, prev, next, nil
}

// Set inserts or replaces the entry stored under key, placing it at the
// tail either way. It returns the displaced payload if the key was present.
// Set never fails.
func (t *Table[K, V]) Set(key K, payload V) (old V, replaced bool) {
	old, replaced = t.Remove(key)
	if err := t.Add(key, payload); err != nil {
		panic(fmt.Sprintf("table: add after remove failed: %v", err))
	}
	return old, replaced
}

// Remove removes the entry stored under key if present and returns its
// payload. Removing an absent key is a no-op. Remove never fails.
func (t *Table[K, V]) Remove(key K) (V, bool) {
	if !t.store.Has(key) {
		var zero V
		return zero, false
	}
	payload, _, _, err := t.Take(key)
	if err != nil {
		panic(fmt.Sprintf("table: take after presence check failed: %v", err))
	}
	return payload, true
}

// Destroy releases the table.
// Fails with assoc.ErrNotEmpty if entries are still live.
func (t *Table[K, V]) Destroy() error {
	if !t.IsEmpty() {
		return fmt.Errorf("destroy with %d live entries: %w", t.Len(), assoc.ErrNotEmpty)
	}
	return t.store.Destroy()
}

// --------------------------------------------------------------------------
// Iteration
// --------------------------------------------------------------------------

// All iterates the table in insertion order (oldest first). The table must
// not be mutated during the iteration; use Sweep (or manual cursors with
// Take) for a walk that removes entries.
func (t *Table[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for c := t.head; c.Valid(); {
			key := c.Key()
			n, err := t.store.Get(key)
			if err != nil {
				return
			}
			if !yield(key, n.payload) {
				return
			}
			c = n.next
		}
	}
}

// Keys returns all live keys in insertion order.
func (t *Table[K, V]) Keys() []K {
	keys := make([]K, 0, t.Len())
	for k := range t.All() {
		keys = append(keys, k)
	}
	return keys
}
