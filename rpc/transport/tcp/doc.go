// Package tcp implements TCP socket-based transport for the ordered key-value
// table's RPC system. It provides concrete implementations of the base package's
// connector interfaces optimized for TCP connections.
//
// This package builds on the base package's transport functionality, inheriting its
// performance optimizations including connection pooling, buffer reuse, and request
// routing. See the base package documentation for detailed information on the underlying
// transport mechanisms and performance characteristics.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// Both connectors apply the TCP socket tuning from the respective transport
// config (Nagle, keep-alive, linger, socket buffer sizes).
//
// The default server buffer size is set to 512 KB, which provides good performance
// for typical workloads, but can be customized via the server config.
package tcp
