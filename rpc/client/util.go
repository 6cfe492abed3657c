package client

import (
	"fmt"

	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/ValentinKolb/maxstore/rpc/common"
	"github.com/ValentinKolb/maxstore/rpc/serializer"
	"github.com/ValentinKolb/maxstore/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter holds everything an RPC client needs to reach one shard
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

func (a *rpcClientAdapter) invoke(req *common.Message) (*common.Message, error) {
	return invokeRPCRequest(a.shardId, req, a.transport, a.serializer)
}

// invokeRPCRequest sends req to the shard and decodes the response.
//
// Every returned error is a *medium.Error: transport failures carry
// RetCUnavailable, errors reported by the server keep the code they were
// sent with and everything else is RetCInternalError.
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, medium.NewError(medium.RetCInternalError, fmt.Sprintf("failed to serialize %s request: %v", req.MsgType, err))
	}

	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		Logger.Debugf("Request %s to shard %d failed: %v", req.MsgType, shardId, err)
		return nil, medium.NewError(medium.RetCUnavailable, err.Error())
	}

	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, medium.NewError(medium.RetCInternalError, fmt.Sprintf("failed to deserialize response: %v", err))
	}

	// Error reported by the server
	if resp.MsgType == common.MsgTError || resp.Err != "" {
		code := resp.ErrCode
		if code == medium.RetCSuccess {
			code = medium.RetCInternalError
		}
		return nil, medium.NewError(code, resp.Err)
	}

	if resp.MsgType != req.MsgType {
		return nil, medium.NewError(medium.RetCInternalError,
			fmt.Sprintf("unexpected message type: %s, expected %s", resp.MsgType, req.MsgType))
	}

	return resp, nil
}
