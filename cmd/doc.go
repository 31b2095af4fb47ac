// Package cmd implements the command-line interface of dDict. It provides a
// hierarchical command structure for working with a replicated dictionary as a
// client and for running a standalone development server.
//
// The package is organized into several subpackages:
//
//   - dict: Dictionary operations (get, set, del, has, keys, dump, stats, perf)
//   - cluster: Administrative requests (diagnostic, add, remove)
//   - serve: Starts the standalone in-memory server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See ddict -help for a list of all commands.
package cmd
