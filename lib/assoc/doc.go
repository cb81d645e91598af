// Package assoc provides the opaque associative store primitive the ordered
// table is layered on: an unordered map from key to value with key-based
// lookup, insertion and removal, where each operation either succeeds or
// fails with a well-known sentinel error.
//
// The package focuses on:
//   - A minimal interface (Store) with abort-style semantics: Put fails if
//     the key is present, Get/Del fail if it is absent, Destroy fails if the
//     store still holds entries
//   - Sentinel errors (ErrKeyNotFound, ErrKeyExists, ErrNotEmpty) that can be
//     tested with errors.Is no matter how deeply they are wrapped
//   - An xsync.MapOf backed implementation (NewMap) with O(1) expected-time
//     operations and no iteration-order guarantees
//
// The store intentionally exposes no iteration: any ordering over its keys is
// the responsibility of a layer above it (see the table package).
package assoc
