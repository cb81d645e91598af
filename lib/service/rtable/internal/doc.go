// Package internal provides the communication protocol structures and
// serialization logic for the rtable package. It defines the wire format
// used to transmit operations between the table client and the distributed
// state machine.
//
// This package is intended for internal use by the rtable implementation and
// should not be imported directly by external code.
//
// The package consists of two main components:
//
//   - Command System: Defines write operations (Insert, InsertTTL, Remove,
//     Take, Reap, etc.) that modify the state of the table. Commands are
//     serialized and proposed to the RAFT cluster, applied on the state
//     machine, and produce results that are returned to the client. Take
//     results carry the removed value and both pre-removal neighbor keys
//     back through the raft result payload (TakeResult).
//
//   - Query System: Defines read operations (Get, Has, the cursor queries,
//     Scan, etc.) that retrieve data without modifying state. Queries are
//     executed locally on the state machine and therefore do not require
//     serialization.
//
// Command Format:
//
//	Commands are serialized into a binary format with the following structure:
//
//	- 1 byte: Command type
//	- 8 bytes: TTL value (uint64, big endian)
//	- 4 bytes: Key length (uint32, big endian)
//	- N bytes: Key data
//	- M bytes: Value data (optional, only present for insert operations)
//
// Thread Safety:
//
//	The types in this package are not thread-safe. This is not typically an
//	issue as the RAFT protocol ensures sequential processing of commands on
//	the state machine.
package internal
