package server

import (
	"fmt"
	"github.com/okvlab/okv/lib/leasemgr"
	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/rpc/common"
)

func NewLeaseManagerServerAdapter() IRPCServerAdapter {
	return &leaseMgrServerAdapterImpl{}
}

type leaseMgrServerAdapterImpl struct{}

func (adapter *leaseMgrServerAdapterImpl) Handle(req *common.Message, table service.ITable) (resp *common.Message) {
	// Check for nil table
	if table == nil {
		return common.NewErrorResponse("handler: table is nil")
	}

	// Create lease manager
	leases := leasemgr.NewLeaseManager(table)

	// Handle different message types
	switch req.MsgType {
	case common.MsgTLeaseAcquire:
		ok, ownerToken, err := leases.AcquireLease(req.Key, req.TTL)
		return common.NewAcquireResponse(ok, ownerToken, err)
	case common.MsgTLeaseRelease:
		ok, err := leases.ReleaseLease(req.Key, req.Value)
		return common.NewReleaseResponse(ok, err)
	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC LeaseManagerAdapter - Unsupported message type: %s", req.MsgType))
	}
}
