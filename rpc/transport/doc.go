// Package transport defines the contract between the RPC layer and the wire.
// A client transport moves opaque request bytes to a server and returns the
// response bytes, a server transport hands incoming requests to a
// ServerHandleFunc together with the shard ID they address.
//
// Implementations live in the sub packages:
//
//   - base: frame based stream transport shared by tcp and unix
//   - tcp: TCP sockets with configurable socket options
//   - unix: Unix domain sockets for same-host clients
//   - http: one POST per request, with an optional /metrics endpoint
package transport
