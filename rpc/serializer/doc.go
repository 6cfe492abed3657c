// Package serializer encodes the RPC Message for the wire.
//
//   - binary: a type byte, a flags byte naming the present fields, then the
//     fields with 4 byte big endian length prefixes. Smallest and fastest,
//     the default of the CLI.
//   - json: readable, handy when debugging with curl against the http
//     transport.
//   - gob: Go's own format, kept for comparison in the benchmarks.
//
// Client and server must use the same serializer.
package serializer
