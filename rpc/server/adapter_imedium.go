package server

import (
	"fmt"

	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/ValentinKolb/maxstore/rpc/common"
)

func NewIMediumServerAdapter() IRPCServerAdapter {
	return &iMediumServerAdapterImpl{}
}

type iMediumServerAdapterImpl struct{}

func (adapter *iMediumServerAdapterImpl) Handle(req *common.Message, m medium.IMedium) *common.Message {
	if m == nil {
		return common.NewErrorResponse("handler: medium is nil")
	}

	switch req.MsgType {
	case common.MsgTMDGet:
		val, ok, err := m.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTMDSet:
		return common.NewSetResponse(m.Set(req.Key, string(req.Value)))
	case common.MsgTMDRemove:
		return common.NewRemoveResponse(m.Remove(req.Key))
	case common.MsgTMDClear:
		return common.NewClearResponse(m.Clear())
	case common.MsgTMDKeys:
		keys, err := m.Keys()
		return common.NewKeysResponse(keys, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("IMediumAdapter - unsupported message type: %s", req.MsgType),
		)
	}
}
