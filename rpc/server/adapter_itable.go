package server

import (
	"fmt"
	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/rpc/common"
)

func NewITableServerAdapter() IRPCServerAdapter {
	return &iTableServerAdapterImpl{}
}

type iTableServerAdapterImpl struct{}

func (adapter *iTableServerAdapterImpl) Handle(req *common.Message, table service.ITable) *common.Message {
	// Check for nil table
	if table == nil {
		return common.NewErrorResponse("handler: table is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTTblInsert:
		err := table.Insert(req.Key, req.Value)
		return common.NewInsertResponse(err)
	case common.MsgTTblInsertTTL:
		err := table.InsertTTL(req.Key, req.Value, req.TTL)
		return common.NewInsertTTLResponse(err)
	case common.MsgTTblInsertIfAbsent:
		err := table.InsertIfAbsent(req.Key, req.Value, req.TTL)
		return common.NewInsertIfAbsentResponse(err)
	case common.MsgTTblRemove:
		err := table.Remove(req.Key)
		return common.NewRemoveResponse(err)
	case common.MsgTTblTake:
		removed, ok, err := table.Take(req.Key)
		return common.NewTakeResponse(removed.Value, removed.Prev, removed.Next, removed.HasPrev, removed.HasNext, ok, err)
	case common.MsgTTblGet:
		val, ok, err := table.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTTblHas:
		ok, err := table.Has(req.Key)
		return common.NewHasResponse(ok, err)
	case common.MsgTTblHead:
		key, ok, err := table.Head()
		return common.NewHeadResponse(key, ok, err)
	case common.MsgTTblTail:
		key, ok, err := table.Tail()
		return common.NewTailResponse(key, ok, err)
	case common.MsgTTblNext:
		next, ok, err := table.Next(req.Key)
		return common.NewNextResponse(next, ok, err)
	case common.MsgTTblPrev:
		prev, ok, err := table.Prev(req.Key)
		return common.NewPrevResponse(prev, ok, err)
	case common.MsgTTblLen:
		count, err := table.Len()
		return common.NewLenResponse(count, err)
	case common.MsgTTblScan:
		keys, more, err := table.Scan(req.Key, int(req.Count))
		return common.NewScanResponse(keys, more, err)
	case common.MsgTTblReap:
		count, err := table.Reap()
		return common.NewReapResponse(count, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC ITableAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
