// Package rtable implements a distributed, fault-tolerant insertion-ordered
// table using the Dragonboat RAFT consensus library. It provides a strongly
// consistent implementation of the service.ITable interface that can operate
// across multiple nodes while maintaining linearizable consistency.
//
// Architecture:
//
// The rtable implementation consists of three main components:
//
//   - Table Client: Implements the service.ITable interface and communicates
//     with the RAFT cluster. It serializes operations into commands, sends
//     them to the consensus layer, and processes responses.
//
//   - State Machine: A Dragonboat IConcurrentStateMachine implementation that
//     applies commands and queries on each node. The state machine contains a
//     local service.ITable instance (typically an ltable) and applies
//     operations to it.
//
//   - Communication Protocol: Defined in the internal package, this consists
//     of Command and Query structures with serialization logic for
//     transmitting operations across the network.
//
// Write Operations:
//
//	All write operations (Insert, InsertTTL, InsertIfAbsent, Remove, Take,
//	Reap) follow this flow:
//
//	1. The operation is serialized into a Command structure
//	2. The Command is proposed to the RAFT cluster via SyncPropose
//	3. The leader node replicates the command to a majority of followers
//	4. Once committed, the command is applied on every replica's state
//	   machine (Update method in statemachine.go)
//	5. The result is returned to the client
//
// Determinism:
//
//	Every replica applies the identical command sequence to its own local
//	table, so the backing table must behave identically given identical
//	writes. Use an ltable with the default logical clock (ticks advance per
//	write, so TTL expiry is a pure function of the command sequence) and the
//	janitor disabled. Reaping happens exclusively through proposed Reap
//	commands, keeping physical removal at the same log position on every
//	replica. Take is a command rather than a query because it mutates state;
//	its result (value plus pre-removal neighbors) travels back through the
//	raft result payload.
//
// Read Operations:
//
//	Reads (Get, Has, Head, Tail, Next, Prev, Len, Scan) use the linearizable
//	SyncRead by default. GetServiceInfo uses StaleRead, which may return
//	slightly outdated information but with lower latency.
//
// Error Handling and Retries:
//
//	When Dragonboat reports ErrSystemBusy, operations are retried after a
//	short delay, up to 5 attempts. All operations have a configurable
//	timeout; if consensus cannot be reached within this period, the
//	operation fails with a *service.Error.
//
// Snapshotting and Recovery:
//
//	The state machine persists its state through the service.ISnapshotter
//	interface of the backing table. Snapshots preserve insertion order and
//	pending TTLs, so a recovered replica reaches the same state as its
//	peers once the remaining log entries are applied.
//
// Usage:
//
//	// Create NodeHost (RAFT client)
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	if err != nil { ... }
//
//	// Table factory for the state machine (deterministic configuration)
//	tableFactory := func() service.ITable {
//	    return ltable.NewLocalTable(&ltable.Options{JanitorInterval: -1})
//	}
//
//	// Create and start shard (RAFT server)
//	err = nh.StartConcurrentReplica(
//	    clusterMembers,
//	    false,
//	    rtable.CreateStateMachineFactory(tableFactory),
//	    shardConfig)
//	if err != nil { ... }
//
//	// Create table client with appropriate timeout
//	tbl := rtable.NewReplicatedTable(nh, shardID, 5*time.Second)
//
// For scenarios where distributed consensus is not required, consider using
// the simpler and faster ltable package, which provides a single-node
// implementation of the same interface.
package rtable
