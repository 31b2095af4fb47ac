// Package dict contains the dictionary commands. Every invocation creates a client,
// which fetches one snapshot before the command runs.
package dict
