package client

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// invokeRPCRequest is a helper function used by the router to perform one round-trip.
// It serializes the request, sends it to member and parses the response for the
// type of the request. A redirect is returned as a regular response of kind RespKRedirect.
func invokeRPCRequest(
	ctx context.Context,
	member common.ClusterMember,
	req *common.Message,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*common.Response, error) {
	// Serialize the request
	reqBytes, err := serializer.Serialize(req.ToMap())
	if err != nil {
		return nil, common.NewError(common.ErrCEncode, fmt.Sprintf("failed to encode %s request", req.MsgType), err)
	}

	// Send the request
	respBytes, err := transport.Request(ctx, member, reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	raw, err := serializer.Deserialize(respBytes)
	if err != nil {
		return nil, err
	}

	// Check that the response has the shape expected for the request
	return common.ParseResponse(req.MsgType, raw)
}
