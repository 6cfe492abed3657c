package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/ValentinKolb/maxstore/lib/medium/engines/memory"
	"github.com/ValentinKolb/maxstore/lib/medium/engines/sqlite"
	"github.com/ValentinKolb/maxstore/rpc/client"
	"github.com/ValentinKolb/maxstore/rpc/common"
	"github.com/ValentinKolb/maxstore/rpc/serializer"
	"github.com/ValentinKolb/maxstore/rpc/transport"
	"github.com/ValentinKolb/maxstore/rpc/transport/http"
	"github.com/ValentinKolb/maxstore/rpc/transport/tcp"
	"github.com/ValentinKolb/maxstore/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (MAXSTORE_<FLAG>)
	EnvPrefix = "maxstore"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration sources
// --------------------------------------------------------------------------

// InitConfig loads .env files and makes viper read MAXSTORE_* environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper and reads the file given
// with --config, if any. Flags and environment variables take precedence over the file.
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return common.InitLoggers(viper.GetString("log-level"))
}

// --------------------------------------------------------------------------
// Flags
// --------------------------------------------------------------------------

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "localhost:8080", WrapString("The address of the maxstore server. Multiple endpoints can be given as a comma-separated list"))

	key = "transport-conn-per-endpoint"
	cmd.PersistentFlags().Int(key, 1, WrapString("Simultaneous connections per endpoint (tcp, unix)"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to try a request"))

	SetupSocketFlags(cmd)
}

// SetupSocketFlags adds the socket and TCP tuning flags shared by client and server
func SetupSocketFlags(cmd *cobra.Command) {
	key := "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("Socket write buffer size in KB (0 = OS default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("Socket read buffer size in KB (0 = OS default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Enable TCP_NODELAY (tcp only)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("Keep-alive period in seconds, 0 disables it (tcp only)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, -1, WrapString("SO_LINGER in seconds, negative keeps the OS default (tcp only)"))
}

// SetupMediumFlags adds the flags selecting the medium a store runs on
func SetupMediumFlags(cmd *cobra.Command) {
	key := "medium"
	cmd.PersistentFlags().String(key, "remote", WrapString("Medium to use (memory, sqlite, remote)"))

	key = "sqlite-path"
	cmd.PersistentFlags().String(key, "maxstore.db", WrapString("Database file of the sqlite medium"))

	key = "quota"
	cmd.PersistentFlags().Int(key, 0, WrapString("Quota in bytes of a local medium (0 = unlimited)"))

	key = "shard"
	cmd.PersistentFlags().Int(key, 100, WrapString("ID of the shard to connect to (remote medium)"))
}

// --------------------------------------------------------------------------
// Config readers
// --------------------------------------------------------------------------

func getSocketConf() common.SocketConf {
	return common.SocketConf{
		WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
	}
}

func getTCPConf() common.TCPConf {
	return common.TCPConf{
		TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
	}
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		Transport: common.ClientTransportConfig{
			RetryCount:             viper.GetInt("transport-retries"),
			Endpoints:              splitList(viper.GetString("transport-endpoints")),
			ConnectionsPerEndpoint: viper.GetInt("transport-conn-per-endpoint"),
			SocketConf:             getSocketConf(),
			TCPConf:                getTCPConf(),
		},
	}
}

// GetServerTransportConfig reads the listener settings from viper
func GetServerTransportConfig() common.ServerTransportConfig {
	return common.ServerTransportConfig{
		Endpoint:       viper.GetString("endpoint"),
		WorkersPerConn: viper.GetInt("workers-per-conn"),
		BufferSize:     viper.GetInt("buffer-size") * 1024,
		SocketConf:     getSocketConf(),
		TCPConf:        getTCPConf(),
	}
}

// GetShardID retrieves the configured shard ID
func GetShardID() uint64 {
	return uint64(viper.GetInt("shard"))
}

// --------------------------------------------------------------------------
// Factories
// --------------------------------------------------------------------------

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetClientTransport creates a client transport based on configuration
func GetClientTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpClientTransport(), nil
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates a server transport based on configuration
func GetServerTransport(config common.ServerTransportConfig) (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpServerTransport(), nil
	case "tcp":
		return tcp.NewTCPServerTransport(config.BufferSize, config.WorkersPerConn), nil
	case "unix":
		return unix.NewUnixServerTransport(config.BufferSize, config.WorkersPerConn), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// OpenMedium opens the medium selected with --medium
func OpenMedium() (medium.IMedium, error) {
	quota := viper.GetInt("quota")

	switch viper.GetString("medium") {
	case "memory":
		return memory.NewMemoryMedium(&memory.Options{QuotaBytes: quota}), nil
	case "sqlite":
		opts := sqlite.DefaultOptions(viper.GetString("sqlite-path"))
		opts.QuotaBytes = quota
		return sqlite.NewSQLiteMedium(opts)
	case "remote":
		s, err := GetSerializer()
		if err != nil {
			return nil, err
		}
		t, err := GetClientTransport()
		if err != nil {
			return nil, err
		}
		return client.NewRPCMedium(GetShardID(), *GetClientConfig(), t, s)
	default:
		return nil, fmt.Errorf("invalid medium %s (expected memory, sqlite or remote)", viper.GetString("medium"))
	}
}

// splitList splits a comma separated list and drops empty elements
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
