package client

import (
	"fmt"
	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/rpc/common"
	"github.com/okvlab/okv/rpc/serializer"
	"github.com/okvlab/okv/rpc/transport"
)

// NewRPCTable creates a new RPC table client
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a service.ITable and an error
func NewRPCTable(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (service.ITable, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC table
	t := rpcTable{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC table
	return &t, nil
}

type rpcTable struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the service package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcTable) Insert(key string, value []byte) (err error) {
	req := common.NewInsertRequest(key, value)
	_, err = invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcTable) InsertTTL(key string, value []byte, ttl uint64) (err error) {
	req := common.NewInsertTTLRequest(key, value, ttl)
	_, err = invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcTable) InsertIfAbsent(key string, value []byte, ttl uint64) (err error) {
	req := common.NewInsertIfAbsentRequest(key, value, ttl)
	_, err = invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcTable) Remove(key string) (err error) {
	req := common.NewRemoveRequest(key)
	_, err = invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcTable) Take(key string) (removed service.Removed, ok bool, err error) {
	req := common.NewTakeRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return service.Removed{}, false, err
	}
	removed = service.Removed{
		Value:   resp.Value,
		Prev:    resp.PrevKey,
		Next:    resp.NextKey,
		HasPrev: resp.HasPrev,
		HasNext: resp.HasNext,
	}
	return removed, resp.Ok, nil
}

func (i *rpcTable) Get(key string) (value []byte, loaded bool, err error) {
	req := common.NewGetRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcTable) Has(key string) (loaded bool, err error) {
	req := common.NewHasRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcTable) Head() (key string, ok bool, err error) {
	req := common.NewHeadRequest()
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return "", false, err
	}
	return resp.Key, resp.Ok, nil
}

func (i *rpcTable) Tail() (key string, ok bool, err error) {
	req := common.NewTailRequest()
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return "", false, err
	}
	return resp.Key, resp.Ok, nil
}

func (i *rpcTable) Next(key string) (next string, ok bool, err error) {
	req := common.NewNextRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return "", false, err
	}
	return resp.NextKey, resp.Ok, nil
}

func (i *rpcTable) Prev(key string) (prev string, ok bool, err error) {
	req := common.NewPrevRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return "", false, err
	}
	return resp.PrevKey, resp.Ok, nil
}

func (i *rpcTable) Len() (count uint64, err error) {
	req := common.NewLenRequest()
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (i *rpcTable) Scan(after string, limit int) (keys []string, more bool, err error) {
	req := common.NewScanRequest(after, limit)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, false, err
	}
	return resp.Keys, resp.More, nil
}

func (i *rpcTable) Reap() (count uint64, err error) {
	req := common.NewReapRequest()
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// GetServiceInfo is not implemented for rpc
func (i *rpcTable) GetServiceInfo() (info service.ServiceInfo, err error) {
	return service.ServiceInfo{}, fmt.Errorf("the GetServiceInfo() method is not implemented in the rpc client adapter")
}

// SupportsFeature always reports true; feature checks are evaluated by the
// server-side table, which rejects unsupported operations with a coded error
func (i *rpcTable) SupportsFeature(feature service.Feature) bool {
	return true
}

func (i *rpcTable) Close() error {
	return i.transport.Close()
}
