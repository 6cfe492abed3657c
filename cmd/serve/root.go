package serve

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ValentinKolb/maxstore/cmd/util"
	"github.com/ValentinKolb/maxstore/rpc/common"
	"github.com/ValentinKolb/maxstore/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the maxstore server",
		Long:    `Start the maxstore server with the specified configuration. The configuration can be set via command line flags, environment variables or a config file. The format of the environment variables is MAXSTORE_<flag> (e.g. MAXSTORE_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=memory", util.WrapString("Comma-separated list of shards to serve. Format: ID=TYPE where TYPE is one of: memory, sqlite"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", util.WrapString("Directory holding the database file of every sqlite shard (shard-<ID>.db)"))

	key = "quota"
	ServeCmd.PersistentFlags().Int(key, 0, util.WrapString("Quota per shard in bytes, counted as the length of all keys and values (0 = unlimited)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, util.WrapString("Read and write timeout of connections in seconds"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", util.WrapString("The address on which the server will listen (e.g. localhost:8080, /tmp/maxstore.sock, ...)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 0, util.WrapString("Concurrent requests per connection for tcp and unix (0 = transport default)"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, 0, util.WrapString("Read buffer size per request in KB for tcp and unix (0 = transport default)"))

	key = "metrics"
	ServeCmd.PersistentFlags().Bool(key, false, util.WrapString("Serve Prometheus metrics on GET /metrics (http transport only)"))

	util.SetupSocketFlags(ServeCmd)
}

// parseShards parses a list in the format ID=TYPE,ID=TYPE
func parseShards(list string) ([]common.ServerShard, error) {
	shards := []common.ServerShard{}
	seen := make(map[uint64]bool)

	for _, shardConfig := range strings.Split(list, ",") {
		parts := strings.Split(shardConfig, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid shard format: %s (expected ID=TYPE)", shardConfig)
		}

		shardID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %v", parts[0], err)
		}
		if seen[shardID] {
			return nil, fmt.Errorf("duplicate shard ID %d", shardID)
		}
		seen[shardID] = true

		shardType, err := common.ParseShardType(parts[1])
		if err != nil {
			return nil, err
		}

		shards = append(shards, common.ServerShard{
			ShardID: shardID,
			Type:    shardType,
		})
	}
	return shards, nil
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	serveCmdConfig.Shards = shards

	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.QuotaBytes = viper.GetInt("quota")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Transport = util.GetServerTransportConfig()
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Metrics = viper.GetBool("metrics")

	return nil
}

// run starts the maxstore server and shuts it down on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetServerTransport(serveCmdConfig.Transport)
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(*serveCmdConfig, t, s)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		server.Logger.Infof("received %s, shutting down", sig)
		if err := serv.Shutdown(); err != nil {
			server.Logger.Errorf("shutdown: %v", err)
		}
	}()

	return serv.Serve()
}
