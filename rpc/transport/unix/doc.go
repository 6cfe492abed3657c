// Package unix plugs Unix domain sockets into the frame based transport of
// the base package. It is meant for clients on the same host as the server.
//
// The server removes a stale socket file before listening. The default read
// buffer is 64 KB.
package unix
