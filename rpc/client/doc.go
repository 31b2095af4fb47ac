// Package client implements the network side of the dDict client: leader
// tracking with redirect following, and bounded write retries.
//
// Key Components:
//
//   - ClusterRouter: holds the believed leader of one session. Send issues a request
//     to it through the transport and re-dispatches on redirect responses, updating
//     the tracked leader. Redirect following is bounded (ClientConfig.MaxRedirectHops,
//     by default the larger of common.DefaultMaxRedirectHops and the known cluster
//     size) and fails with a RedirectLoopError when exceeded. FetchSnapshot reads the
//     full state from a random member of the last known membership.
//
//   - WriteRetrier: repeats an append request until the server reports success or
//     the attempt bound is reached. Exhaustion is reported through
//     common.AppendResult.Success, never as an error.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Seed:                common.ClusterMember{Address: "localhost", Port: 5254},
//	  TimeoutSecond:       5,
//	  AppendRetryAttempts: 3,
//	}
//
//	router, _ := client.NewClusterRouter(config, tcp.NewTCPClientTransport(), serializer.NewMsgpackSerializer(), nil)
//	retrier := client.NewWriteRetrier(router, 0)
//
//	result := retrier.AppendWithRetry(ctx, common.NewChangeData("x", 5), config.Attempts())
//	if !result.Success {
//	  // the write was not acknowledged
//	}
//
//	snapshot, err := router.FetchSnapshot(ctx)
//
// Metrics:
//
//	Both components register counters and a request duration histogram in the
//	github.com/VictoriaMetrics/metrics set passed to NewClusterRouter.
package client
