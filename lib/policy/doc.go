// Package policy contains the refresh policies of the distributed dict.
//
// A refresh policy decides, before every read, whether the locally cached snapshot
// is refreshed from the cluster. The policies trade read latency for staleness:
//
//   - Always: every read fetches a new snapshot (read-your-writes for a single client)
//   - Lock:   reads refresh while an externally controlled flag is set
//   - Count:  every N-th read refreshes
//   - Time:   a read refreshes if the last refresh is older than an interval
//
// Policies only decide; they never perform I/O. Parse builds a policy from the
// textual form used by the CLI (always, lock:false, count:10, time:2s).
package policy
