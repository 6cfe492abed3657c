// Package client exposes a remote shard as a medium.IMedium. Any component
// written against the medium interface, the store package included, can run
// on top of a server without knowing about the network.
//
// Errors keep their meaning across the wire: a quota violation on the server
// arrives as an error matching medium.ErrQuotaExceeded and a transport
// failure matches medium.ErrUnavailable.
//
//	config := common.ClientConfig{
//		TimeoutSecond: 5,
//		Transport: common.ClientTransportConfig{
//			Endpoints:  []string{"localhost:8080"},
//			RetryCount: 3,
//		},
//	}
//
//	m, _ := client.NewRPCMedium(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	s, _ := store.New(m, nil)
package client
