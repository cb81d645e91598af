// Package ltable provides the single-node implementation of service.ITable.
//
// It wraps the core ordered table (lib/table) behind the byte-oriented
// service API and adds TTL expiry. Lifetimes are measured against a Clock:
// the default logical clock advances one tick per write, which keeps expiry
// deterministic, while NewSystemClock turns TTLs into millisecond lifetimes.
//
// Expired entries become invisible to Get immediately, but stay physically
// linked until a reap removes them. Reaping happens either explicitly via
// Reap() or through the optional background janitor, which tracks pending
// deadlines in a min-heap fed by a lock-free event queue and removes due
// entries after double-checking them under the table lock.
package ltable
