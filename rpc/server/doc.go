// Package server serves mediums to remote clients. Each shard ID maps to one
// medium.IMedium; requests name the shard they address and are executed by
// an IRPCServerAdapter.
//
// Shards come from ServerConfig.Shards (memory or sqlite, both honoring
// QuotaBytes) or are registered programmatically with AddShard before Serve.
//
// Every request increments maxstore_rpc_requests_total{type="..."}, failed
// ones also maxstore_rpc_errors_total{type="..."}. The http transport exports
// them under /metrics.
package server
