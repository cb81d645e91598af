// Package service defines the common interface for insertion-ordered table
// services.
//
// An ITable wraps a core ordered table (see lib/table) behind a byte-oriented
// API suitable for local embedding, replication, and remote access. Two
// implementations exist:
//
//   - ltable: a single-node, in-process table with TTL expiry and an optional
//     background janitor (see lib/service/ltable)
//   - rtable: a raft-replicated table built on dragonboat, where every write
//     is a proposed command applied deterministically on each replica (see
//     lib/service/rtable)
//
// All implementations report failures as *service.Error carrying a RetCode,
// so callers can switch on the code without string matching.
package service
