// Package server implements the RPC server for the ordered key-value table system.
// It provides adapters for handling RPC requests to both table and lease manager
// services, along with the core server implementation that manages shards and
// request routing.
//
// The package focuses on:
//   - Server-side RPC request handling for both table and lease manager operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Flexible shard configuration with support for local and replicated tables
//   - Dynamic creation of tables and lease managers based on shard configuration
//   - Per-request metrics (counters and duration summaries) with an optional
//     Prometheus exposition endpoint
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a service.ITable.
//
//   - NewITableServerAdapter: Factory function creating an adapter for ordered
//     table operations, translating RPC requests to service.ITable method calls.
//
//   - NewLeaseManagerServerAdapter: Factory function creating an adapter for
//     lease operations, creating a leasemgr.ILeaseManager on top of the table.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeLocalITable},
//	    {ShardID: 200, Type: common.ShardTypeLocalILeaseManager},
//	  },
//	  Transport: common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// The server supports four types of shards, which can be mixed within a single server:
//
//   - ShardTypeLocalITable: A local table implementation, suitable for single-node
//     deployments or development environments.
//
//   - ShardTypeReplicatedITable: A replicated table implementation using Raft
//     consensus, providing strong consistency across multiple nodes. When using
//     this type, RAFT configuration (RTTMillisecond, SnapshotEntries,
//     CompactionOverhead, DataDir, ReplicaID, and ClusterMembers) must be
//     properly configured.
//
//   - ShardTypeLocalILeaseManager: A local lease manager implementation, using
//     a local table as its backend.
//
//   - ShardTypeReplicatedILeaseManager: A replicated lease manager implementation
//     using a replicated table as its backend. When using this type, all RAFT
//     configuration parameters must be properly configured.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	The Listen method is not thread-safe and should be called only once.
package server
