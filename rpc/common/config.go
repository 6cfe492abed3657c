package common

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared transport settings
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings shared by all stream transports
type SocketConf struct {
	// WriteBufferSize is the size of the socket send buffer in bytes (0 = OS default)
	WriteBufferSize int
	// ReadBufferSize is the size of the socket receive buffer in bytes (0 = OS default)
	ReadBufferSize int
}

// TCPConf holds TCP specific connection settings
type TCPConf struct {
	// TCPNoDelay disables Nagle's algorithm
	TCPNoDelay bool
	// TCPKeepAliveSec enables keep-alive probes with the given period (0 = disabled)
	TCPKeepAliveSec int
	// TCPLingerSec sets SO_LINGER; negative values keep the OS default
	TCPLingerSec int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

type ServerShardType string

const (
	ShardTypeMemory ServerShardType = "memory"
	ShardTypeSQLite ServerShardType = "sqlite"
)

// ParseShardType converts a string to a ServerShardType
func ParseShardType(s string) (ServerShardType, error) {
	switch ServerShardType(strings.ToLower(strings.TrimSpace(s))) {
	case ShardTypeMemory:
		return ShardTypeMemory, nil
	case ShardTypeSQLite:
		return ShardTypeSQLite, nil
	default:
		return "", fmt.Errorf("invalid shard type %q, must be one of memory, sqlite", s)
	}
}

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type is the medium backing the shard
	Type ServerShardType
}

// ServerTransportConfig holds the listener settings of the server transport
type ServerTransportConfig struct {
	// Endpoint is the address (tcp, http) or socket path (unix) to listen on
	Endpoint string
	// WorkersPerConn limits concurrent requests per connection (stream transports)
	WorkersPerConn int
	// BufferSize is the size of pooled read buffers in bytes (stream transports)
	BufferSize int

	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters for the RPC server.
type ServerConfig struct {
	// Shards served by this server
	Shards []ServerShard

	// Medium parameters
	DataDir    string // directory holding one SQLite file per sqlite shard
	QuotaBytes int    // per shard quota (0 = unlimited)

	// TimeoutSecond is the read/write deadline for connections
	TimeoutSecond int64

	// Transport settings
	Transport ServerTransportConfig

	// Logging configuration
	LogLevel string

	// Metrics enables the /metrics endpoint (http transport)
	Metrics bool
}

// SQLitePath returns the database file used by the sqlite shard with the given ID
func (c *ServerConfig) SQLitePath(shardID uint64) string {
	return filepath.Join(c.DataDir, fmt.Sprintf("shard-%d.db", shardID))
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Metrics", fmt.Sprintf("%t", c.Metrics))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Mediums
	addSection("Mediums")
	addField("Data Directory", c.DataDir)
	if c.QuotaBytes > 0 {
		addField("Quota", fmt.Sprintf("%d bytes", c.QuotaBytes))
	} else {
		addField("Quota", "unlimited")
	}

	// Shards
	addSection("Shards")
	for _, shard := range c.Shards {
		addField(strconv.FormatUint(shard.ShardID, 10), string(shard.Type))
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the connection settings of the client transport
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int

	SocketConf
	TCPConf
}

type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
