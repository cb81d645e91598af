// Package client implements RPC clients for the ordered key-value table system.
// It provides implementations of the service.ITable and leasemgr.ILeaseManager
// interfaces that communicate with remote servers via RPC.
//
// The package focuses on:
//   - Transparent RPC access to table and lease manager implementations
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCTable: Factory function that creates a client implementing the
//     service.ITable interface. This client forwards all operations to remote
//     servers via the configured transport layer.
//
//   - NewRPCLeaseMgr: Factory function that creates a client implementing the
//     leasemgr.ILeaseManager interface for lease operations.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:5000"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create table client
//	table, _ := client.NewRPCTable(1, config, tcp.NewTCPClientTransport(), serializer)
//
//	// Use the table
//	table.Insert("mykey", []byte("myvalue"))
//	value, exists, _ := table.Get("mykey")
//
//	// Walk the table in insertion order
//	key, ok, _ := table.Head()
//	for ok {
//	  key, ok, _ = table.Next(key)
//	}
//
//	// Create and use a lease manager
//	leaseMgr, _ := client.NewRPCLeaseMgr(2, config, tcp.NewTCPClientTransport(), serializer)
//	acquired, ownerToken, _ := leaseMgr.AcquireLease("mylease", 30)
//	if acquired {
//	  leaseMgr.ReleaseLease("mylease", ownerToken)
//	}
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
