package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/ValentinKolb/maxstore/lib/medium/engines/memory"
	"github.com/ValentinKolb/maxstore/lib/medium/engines/sqlite"
	"github.com/ValentinKolb/maxstore/rpc/common"
	"github.com/ValentinKolb/maxstore/rpc/serializer"
	"github.com/ValentinKolb/maxstore/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a medium served under one shard ID together with the
// adapter that executes requests on it
type serverShard struct {
	Medium  medium.IMedium
	Adapter IRPCServerAdapter
}

// RPCServer serves mediums over an RPC transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
	closeOnce  sync.Once
}

// NewRPCServer creates a new RPC server. The shards of config are opened by Serve.
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(0, 0),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// AddShard serves m under shardID. It fails if the ID is taken.
func (s *RPCServer) AddShard(shardID uint64, m medium.IMedium) error {
	if _, loaded := s.shards.LoadOrStore(shardID, serverShard{Medium: m, Adapter: NewIMediumServerAdapter()}); loaded {
		return fmt.Errorf("shard %d already exists", shardID)
	}
	return nil
}

// Serve opens the configured shards and starts the transport layer. It blocks
// until Shutdown is called or the transport fails.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	Logger.Infof("maxstore server ready, %d shards", s.shards.Size())
	return s.transport.Listen(s.config)
}

// Addr returns the listen address, nil while the transport is not listening
func (s *RPCServer) Addr() net.Addr {
	return s.transport.Addr()
}

// Shutdown stops the transport and closes every medium
func (s *RPCServer) Shutdown() error {
	var errs []error
	s.closeOnce.Do(func() {
		if err := s.transport.Shutdown(); err != nil {
			errs = append(errs, err)
		}
		s.shards.Range(func(id uint64, shard serverShard) bool {
			if err := shard.Medium.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close shard %d: %w", id, err))
			}
			return true
		})
	})
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) init() error {
	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	for _, shardConfig := range s.config.Shards {
		m, err := s.openMedium(shardConfig)
		if err != nil {
			return fmt.Errorf("failed to open shard %d: %w", shardConfig.ShardID, err)
		}
		if err := s.AddShard(shardConfig.ShardID, m); err != nil {
			_ = m.Close()
			return err
		}
		Logger.Infof("created %s medium for shard %d", shardConfig.Type, shardConfig.ShardID)
	}

	s.registerTransportHandler()
	return nil
}

// openMedium creates the medium described by a shard config
func (s *RPCServer) openMedium(shard common.ServerShard) (medium.IMedium, error) {
	switch shard.Type {
	case common.ShardTypeMemory:
		return memory.NewMemoryMedium(&memory.Options{QuotaBytes: s.config.QuotaBytes}), nil
	case common.ShardTypeSQLite:
		if s.config.DataDir != "" {
			if err := os.MkdirAll(s.config.DataDir, 0o755); err != nil {
				return nil, err
			}
		}
		opts := sqlite.DefaultOptions(s.config.SQLitePath(shard.ShardID))
		opts.QuotaBytes = s.config.QuotaBytes
		return sqlite.NewSQLiteMedium(opts)
	default:
		return nil, fmt.Errorf("invalid shard type: %s", shard.Type)
	}
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg *common.Message

		shard, ok := s.shards.Load(shardId)
		if !ok {
			respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
		} else if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			respMsg = shard.Adapter.Handle(&msg, shard.Medium)
		}

		countRequest(msg.MsgType, respMsg)

		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
}

// countRequest updates the per message type request and error counters
func countRequest(t common.MessageType, resp *common.Message) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`maxstore_rpc_requests_total{type=%q}`, t.String())).Inc()
	if resp.MsgType == common.MsgTError || resp.Err != "" {
		metrics.GetOrCreateCounter(fmt.Sprintf(`maxstore_rpc_errors_total{type=%q}`, t.String())).Inc()
	}
}
