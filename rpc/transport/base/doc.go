// Package base implements the stream transport shared by the tcp and unix
// packages. A protocol only supplies a connector (IClientConnector or
// IServerConnector) that dials, listens and tunes sockets; framing, request
// correlation and concurrency live here.
//
// Frame layout (big endian):
//
//	8 bytes shard ID | 8 bytes request ID | 4 bytes length | payload
//
// Payloads are limited to MaxFrameSize. A larger length header closes the
// connection.
//
// Client:
//
//   - ConnectionsPerEndpoint connections per endpoint, picked round robin.
//   - Every request gets a unique ID, a reader goroutine per connection
//     routes responses back to the waiting caller.
//   - Failed sends are retried up to RetryCount times with exponential
//     backoff and jitter. A broken connection fails its pending requests
//     and reconnects.
//
// Server:
//
//   - One goroutine per connection reads frames into pooled buffers.
//   - At most WorkersPerConn requests of a connection run concurrently.
//     Responses may be written out of order, the request ID ties them to
//     their request.
//   - Shutdown closes the listener, Listen then returns nil.
package base
