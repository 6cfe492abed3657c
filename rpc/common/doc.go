// Package common holds what client and server of the RPC layer share: the
// Message exchanged for every request and response, the server and client
// configuration and the logger setup used by all maxstore packages.
//
// A Message carries the medium operation in MsgType. Errors travel as text in
// Err; errors of type *medium.Error additionally carry their RetCode in
// ErrCode so the client can rebuild them.
//
// InitLoggers installs a dragonboat logger factory that writes
//
//	2025/01/02 15:04:05 INFO  | store           | message
//
// to stderr and sets the level of every maxstore logger.
package common
