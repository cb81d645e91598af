// Package table implements an insertion-ordered key-value table layered over
// the unordered store from the assoc package.
//
// The order is maintained as a doubly linked list expressed with key values
// instead of pointers: every entry records the key of its predecessor and
// successor, and the table keeps two out-of-band cursors for the oldest
// (head) and newest (tail) live key. Because links are keys resolved through
// the store, removing an entry hands the caller stable key cursors for both
// neighbors instead of invalidated pointers.
//
// Ordering rules:
//   - Add appends at the tail; keys are unique.
//   - Set on an existing key removes it first, so the most recent insert
//     always wins the tail position ("insert resets position").
//   - Take removes an entry and returns its pre-removal neighbors, which is
//     what makes it safe to delete the entry a traversal is standing on and
//     continue from its successor (see Sweep).
//
// The table is not safe for concurrent use; it is an in-memory structure
// owned by a single caller at any instant. The service packages above it own
// the locking.
package table
