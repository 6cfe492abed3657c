package client

import (
	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/ValentinKolb/maxstore/rpc/common"
	"github.com/ValentinKolb/maxstore/rpc/serializer"
	"github.com/ValentinKolb/maxstore/rpc/transport"
)

// NewRPCMedium connects the transport and returns a medium.IMedium whose
// operations are executed by the server shard with the given ID.
//
// Usage:
//
//	m, err := client.NewRPCMedium(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//		return err
//	}
//	defer m.Close()
func NewRPCMedium(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (medium.IMedium, error) {
	if err := transport.Connect(config); err != nil {
		return nil, medium.NewError(medium.RetCUnavailable, err.Error())
	}

	return &rpcMedium{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcMedium struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see medium.IMedium)
// --------------------------------------------------------------------------

func (m *rpcMedium) Get(key string) (string, bool, error) {
	resp, err := m.invoke(common.NewGetRequest(key))
	if err != nil {
		return "", false, err
	}
	if !resp.Ok {
		return "", false, nil
	}
	return string(resp.Value), true, nil
}

func (m *rpcMedium) Set(key, value string) error {
	_, err := m.invoke(common.NewSetRequest(key, value))
	return err
}

func (m *rpcMedium) Remove(key string) error {
	_, err := m.invoke(common.NewRemoveRequest(key))
	return err
}

func (m *rpcMedium) Clear() error {
	_, err := m.invoke(common.NewClearRequest())
	return err
}

func (m *rpcMedium) Keys() ([]string, error) {
	resp, err := m.invoke(common.NewKeysRequest())
	if err != nil {
		return nil, err
	}
	if resp.Keys == nil {
		return []string{}, nil
	}
	return resp.Keys, nil
}

// Close closes the client transport. The server side medium stays open.
func (m *rpcMedium) Close() error {
	return m.transport.Close()
}
