// Package http carries RPC requests as HTTP POST requests to /{shardId}. The
// body is the serialized request, the response body the serialized response.
//
// The client spreads requests over all endpoints round robin and retries a
// failed request on the next endpoint. Endpoints without a scheme get
// http:// prepended.
//
// When ServerConfig.Metrics is set the server also answers GET /metrics with
// the process wide VictoriaMetrics set in Prometheus text format.
package http
