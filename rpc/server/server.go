package server

import (
	"fmt"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/lib/service/ltable"
	"github.com/okvlab/okv/lib/service/rtable"
	"github.com/okvlab/okv/rpc/common"
	"github.com/okvlab/okv/rpc/serializer"
	"github.com/okvlab/okv/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
	"os/signal"
	"runtime"
	"syscall"
	"time"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the table it encapsulates and the adapter that handles
// requests for the table
type serverShard struct {
	Table   service.ITable
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
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
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	// Create shards map
	shardMap := xsync.NewMapOf[uint64, serverShard]()

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     shardMap,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		start := time.Now()

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     "shard not found",
			}
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = common.Message{
					MsgType: common.MsgTError,
					Err:     fmt.Sprintf("failed to deserialize request: %s", err),
				}
			} else {
				// Let the adapter handle the request
				respMsg = *shard.Adapter.Handle(&msg, shard.Table)
			}
		}

		// Record request metrics under the request's message type
		observeRequest(msg.MsgType, shardId, start, respMsg.MsgType == common.MsgTError || respMsg.Err != "")

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to serialize response: %s", err),
			}
			val, _ = s.serializer.Serialize(respMsg)
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config)

	// Factory for the table instances backing the shards. Replicated shards
	// need the janitor disabled so that expired entries are only removed by
	// proposed reap commands, keeping all replicas identical.
	localFactory := func() service.ITable {
		return ltable.NewLocalTable(nil)
	}
	replicatedFactory := func() service.ITable {
		return ltable.NewLocalTable(&ltable.Options{JanitorInterval: -1})
	}

	// Create the Dragonboat NodeHost
	var nodeHost *dragonboat.NodeHost
	var err error
	if s.config.HasReplicatedShard() {
		// Only create the NodeHost if we have replicated shards
		nodeHost, err = dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
	}

	// Configure the timeout for the replicated table
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	// CREATE SHARDS

	/*
		Note: A single RPC Server can have any number of replicated and or local
		shards. Each shard can be a table or a lease manager. The following loop
		creates all the shards and stores them for the RPC server.
	*/

	for _, shardConfig := range s.config.Shards {

		// Case local table
		if shardConfig.Type == common.ShardTypeLocalITable {
			s.shards.Store(shardConfig.ShardID, serverShard{
				Table:   localFactory(),
				Adapter: NewITableServerAdapter(),
			})
			Logger.Infof("created local table for shard %d", shardConfig.ShardID)

			// Case local lease manager
		} else if shardConfig.Type == common.ShardTypeLocalILeaseManager {
			s.shards.Store(shardConfig.ShardID, serverShard{
				Table:   localFactory(),
				Adapter: NewLeaseManagerServerAdapter(),
			})
			Logger.Infof("created local lease manager for shard %d", shardConfig.ShardID)

			// Case replicated table or replicated lease manager
		} else {
			if nodeHost == nil {
				return fmt.Errorf("node host is nil, cannot create replicated table")
			}

			// Start Raft for the shard
			if err := nodeHost.StartConcurrentReplica(s.config.ClusterMembers, false, rtable.CreateStateMachineFactory(replicatedFactory), s.config.ToDragonboatConfig(shardConfig.ShardID)); err != nil {
				Logger.Errorf("failed to start shard %v: %v", shardConfig.ShardID, err)
			}

			// Choose the appropriate adapter based on the shard type
			var adapter IRPCServerAdapter
			if shardConfig.Type == common.ShardTypeReplicatedILeaseManager { // Case replicated lease manager
				adapter = NewLeaseManagerServerAdapter()
			} else if shardConfig.Type == common.ShardTypeReplicatedITable { // Case replicated table
				adapter = NewITableServerAdapter()
			} else {
				return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
			}

			s.shards.Store(shardConfig.ShardID, serverShard{
				Table:   rtable.NewReplicatedTable(nodeHost, shardConfig.ShardID, timeout),
				Adapter: adapter,
			})
		}
	}

	Logger.Infof("okv setup completed successfully")

	// Start the metrics exposition endpoint if configured
	if s.config.MetricsEndpoint != "" {
		go serveMetrics(s.config.MetricsEndpoint)
	}

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
