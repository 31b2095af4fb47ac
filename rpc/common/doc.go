// Package common provides core data structures and utilities shared across
// the dDict client. It defines the wire protocol, the error taxonomy,
// configuration structures and logging.
//
// The package focuses on:
//   - Message and Response definitions for the request/response protocol
//   - Error codes shared by the transport, routing and map layers
//   - Configuration structures for the client and the standalone server
//   - Custom logging implementation integrated with Dragonboat's logger registry
//
// Key Components:
//
//   - Message: a request (get, append, diagnostic, config). ToMap converts it to
//     the generic map handed to a serializer.
//
//   - Response: the decoded answer of a member. ParseResponse interprets a decoded
//     map for a given request type; any request may be answered by a redirect
//     ({type: "redirect", leader: [address, port]}).
//
//   - Snapshot: the full state returned by a get request. Application keys live in
//     the data field and membership in the cluster field, so an application key
//     can never collide with membership metadata.
//
//   - Error: typed error with an ErrCode. Use errors.Is with the sentinels
//     (ErrNetwork, ErrDecode, ErrEncode, ErrRedirectLoop, ErrKeyNotFound,
//     ErrInvalidConfiguration).
//
//   - ClientConfig: seed member, deadlines, write retry and redirect bounds.
//     Can be read from YAML with ReadClientConfig.
package common
