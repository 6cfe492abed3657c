// Package medium defines the physical storage medium the namespaced store persists into:
// a synchronous, string-keyed store with get, set, remove and clear, without transactions.
//
// The package focuses on:
//   - A unified interface (IMedium) so the store works on any backend without code changes
//   - A structured error type (Error) with return codes, so a full medium (RetCQuotaExceeded)
//     can be told apart from an unreachable one (RetCUnavailable)
//   - A Factory type used to inject mediums into the RPC server and the CLI
//
// Implementations:
//
//   - memory (github.com/ValentinKolb/maxstore/lib/medium/engines/memory): volatile, in-process,
//     optionally limited to a number of bytes. The equivalent of sessionStorage.
//
//   - sqlite (github.com/ValentinKolb/maxstore/lib/medium/engines/sqlite): persisted in a
//     single SQLite file. The equivalent of localStorage.
//
//   - remote (github.com/ValentinKolb/maxstore/rpc/client): forwards every operation to a
//     medium served by a maxstore server.
//
// Every implementation is expected to pass the suite in
// github.com/ValentinKolb/maxstore/lib/medium/testing.
package medium
