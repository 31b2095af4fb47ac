// Package dict provides DistributedDict, a client of a replicated dictionary
// whose consensus is implemented by the cluster members.
//
// Reads (Get, Has, Keys, Len, Items) consult the refresh policy first. If it allows
// a refresh, the full state is fetched from a random cluster member and replaces the
// local mirror; the read is then served from the mirror. Writes (Set) are appended to
// the log of the leader with a bounded number of attempts and never patch the mirror.
// Delete forces a refresh, removes the key locally and then appends the deletion.
//
// Consistency:
//
//	With policy.NewAlwaysPolicy a client reads its own writes. With any other policy
//	a Get after a Set may return the previous value until the policy allows the next
//	refresh. A Delete whose append fails all attempts leaves the local view without
//	the key until a refresh restores it.
//
// Error handling:
//
//	Read errors (network, decode, redirect loop) are returned immediately. Write
//	exhaustion is not an error: callers must check AppendResult.Success.
//
// Usage Example:
//
//	d, err := dict.NewDistributedDict(ctx,
//	  common.ClientConfig{Seed: common.ClusterMember{Address: "127.0.0.1", Port: 5254}},
//	  tcp.NewTCPClientTransport(),
//	  serializer.NewMsgpackSerializer(),
//	  policy.NewLockPolicy(false),
//	)
//	if err != nil {
//	  // handle error
//	}
//
//	if res := d.Set(ctx, "x", 5); !res.Success {
//	  // write was not committed
//	}
package dict
