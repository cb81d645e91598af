package client

import (
	"github.com/okvlab/okv/lib/leasemgr"
	"github.com/okvlab/okv/rpc/common"
	"github.com/okvlab/okv/rpc/serializer"
	"github.com/okvlab/okv/rpc/transport"
)

// NewRPCLeaseMgr creates a new RPC ILeaseManager
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a leasemgr.ILeaseManager and an error
func NewRPCLeaseMgr(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (leasemgr.ILeaseManager, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC lease manager
	l := rpcLeaseMgr{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC lease manager
	return &l, nil
}

type rpcLeaseMgr struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the leasemgr package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcLeaseMgr) AcquireLease(key string, ttl uint64) (ok bool, ownerToken []byte, err error) {
	req := common.NewAcquireRequest(key, ttl)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, nil, err
	}
	return resp.Ok, resp.Value, nil
}

func (i *rpcLeaseMgr) ReleaseLease(key string, ownerToken []byte) (ok bool, err error) {
	req := common.NewReleaseRequest(key, ownerToken)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}
