// Package cluster contains the administrative commands (diagnostic, add, remove).
// They are sent to the leader and do not fetch a snapshot.
package cluster
