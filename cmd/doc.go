// Package cmd implements the command-line interface for the okv ordered
// key-value table. It provides a hierarchical command structure with operations
// for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - table: Commands for ordered table operations (insert, get, take, scan, etc.)
//   - lease: Commands for lease operations (acquire, release)
//   - serve: Commands for starting and configuring the okv server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See okv -help for a list of all commands.
package cmd
