// Package memory implements a volatile, in-process medium.IMedium, the server-side
// equivalent of a browser's sessionStorage. Entries live in an xsync.MapOf and are lost
// when the process exits.
//
// An optional byte quota emulates the capacity limit browsers put on web storage: the
// summed length of all keys and values may not exceed Options.QuotaBytes. A write that
// would cross the limit fails with medium.RetCQuotaExceeded and leaves the stored value
// untouched, so callers can observe the "WriteError on overflow" behavior in tests.
//
// Thread Safety:
//
//	Reads are lock free. Writes are serialized by a mutex so the quota accounting stays
//	exact. The medium can be shared by all connections of an RPC server shard.
package memory
