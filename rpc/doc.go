// Package rpc makes a medium available over the network. A server serves one
// or more mediums under numeric shard IDs, a client turns a shard back into a
// medium.IMedium.
//
// Subpackages:
//
//   - common: the Message protocol, configuration and logger setup
//   - serializer: binary, JSON and GOB encodings of a Message
//   - transport: tcp, unix and http transports
//   - client: the remote medium
//   - server: the shard server and the medium adapter
package rpc
