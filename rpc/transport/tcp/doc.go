// Package tcp plugs TCP sockets into the frame based transport of the base
// package. Client and server share applyTCPOptions, which applies the
// SocketConf and TCPConf settings to every new connection.
//
// The default server read buffer is 512 KB with 100 workers per connection.
package tcp
