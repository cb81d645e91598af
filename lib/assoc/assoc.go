package assoc

import "errors"

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

var (
	// ErrKeyNotFound is returned by Get and Del when the key is absent.
	ErrKeyNotFound = errors.New("assoc: key not found")

	// ErrKeyExists is returned by Put when the key is already present.
	ErrKeyExists = errors.New("assoc: key already exists")

	// ErrNotEmpty is returned by Destroy when the store still holds entries.
	ErrNotEmpty = errors.New("assoc: store not empty")
)

// --------------------------------------------------------------------------
// Store Interface
// --------------------------------------------------------------------------

// Store defines the key-value primitive consumed by the ordered table.
// All operations are abort-style: they either fully succeed or fail with one
// of the sentinel errors above without mutating the store. Callers that want
// non-failing behavior check Has first.
type Store[K comparable, V any] interface {

	// Has reports whether a key is present.
	Has(key K) bool

	// Get returns the value stored under key.
	// Fails with ErrKeyNotFound if the key is absent.
	Get(key K) (value V, err error)

	// Put inserts a new key-value pair.
	// Fails with ErrKeyExists if the key is already present.
	Put(key K, value V) (err error)

	// Del removes the pair stored under key and returns its value.
	// Fails with ErrKeyNotFound if the key is absent.
	Del(key K) (value V, err error)

	// Len returns the number of live entries.
	Len() (n int)

	// Destroy releases the store.
	// Fails with ErrNotEmpty if entries are still live; destroying a
	// non-empty store is a programming error, not a cleanup shortcut.
	Destroy() (err error)
}
