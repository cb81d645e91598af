package rtable

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/lib/service/rtable/internal"

	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	retries = 5
	log     = logger.GetLogger("rtable")
)

// tableImpl is the concrete implementation of the replicated table.
// It encapsulates a Dragonboat NodeHost which is used to communicate with
// the state machine.
type tableImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration
}

// NewReplicatedTable creates a new distributed table instance which uses raft
// consensus to ensure strict linearizability across multiple nodes.
func NewReplicatedTable(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) service.ITable {
	cs := nh.GetNoOPSession(shardID)
	return &tableImpl{
		nh:      nh,
		shardID: shardID,
		cs:      cs,
		timeout: timeout,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write serializes a Command and sends it via SyncPropose.
// It returns the raft result on success, or a *service.Error.
func (t *tableImpl) write(cmd internal.Command) ([]byte, error) {
	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)

		res, err := t.nh.SyncPropose(ctx, t.cs, cmd.Serialize())
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(t.timeout / 10)
			continue
		}

		if err != nil {
			return nil, service.NewError(service.RetCInternalError, err.Error())
		}
		if res.Value != uint64(service.RetCSuccess) {
			return nil, service.NewError(service.RetCode(res.Value), string(res.Data))
		}
		return res.Data, nil
	}
	return nil, service.NewError(service.RetCInternalError, "timeout")
}

// read is a generic helper function that queries the state machine and
// attempts to convert the response into the expected type R.
//
// By default the linearizable SyncRead is used. If linearizability is not
// required, the stale parameter can be set to true to use the faster
// StaleRead.
//
// If the read operation fails due to a system busy error, the function
// retries up to 5 times.
func read[R any](t *tableImpl, q internal.Query, stale bool) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {

		var res interface{}
		var err error

		if stale {
			res, err = t.nh.StaleRead(t.shardID, q)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
			res, err = t.nh.SyncRead(ctx, t.shardID, q)
			cancel()
		}

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(t.timeout / 10)
			continue
		}

		if err != nil {
			var svcErr *service.Error
			if errors.As(err, &svcErr) {
				return zero, svcErr
			}
			return zero, service.NewError(service.RetCInternalError, err.Error())
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, service.NewError(service.RetCInternalError,
				fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, service.NewError(service.RetCInternalError, "timeout")
}

// --------------------------------------------------------------------------
// Interface Methods (docu see service/interface.go)
// --------------------------------------------------------------------------

func (t *tableImpl) Insert(key string, value []byte) error {
	_, err := t.write(internal.Command{
		Type:  internal.CommandTInsert,
		Key:   key,
		Value: value,
	})
	return err
}

func (t *tableImpl) InsertTTL(key string, value []byte, ttl uint64) error {
	_, err := t.write(internal.Command{
		Type:  internal.CommandTInsertTTL,
		Key:   key,
		TTL:   ttl,
		Value: value,
	})
	return err
}

func (t *tableImpl) InsertIfAbsent(key string, value []byte, ttl uint64) error {
	_, err := t.write(internal.Command{
		Type:  internal.CommandTInsertIfAbsent,
		Key:   key,
		TTL:   ttl,
		Value: value,
	})
	return err
}

func (t *tableImpl) Remove(key string) error {
	_, err := t.write(internal.Command{
		Type: internal.CommandTRemove,
		Key:  key,
	})
	return err
}

func (t *tableImpl) Take(key string) (service.Removed, bool, error) {
	data, err := t.write(internal.Command{
		Type: internal.CommandTTake,
		Key:  key,
	})
	if err != nil {
		return service.Removed{}, false, err
	}

	var result internal.TakeResult
	if err := result.Deserialize(data); err != nil {
		return service.Removed{}, false, service.NewError(service.RetCInternalError, err.Error())
	}
	return result.Removed, result.Ok, nil
}

func (t *tableImpl) Get(key string) ([]byte, bool, error) {
	res, err := read[internal.GetResult](t, internal.Query{
		Type: internal.QueryTGet,
		Key:  key,
	}, false)
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Ok, nil
}

func (t *tableImpl) Has(key string) (bool, error) {
	return read[bool](t, internal.Query{
		Type: internal.QueryTHas,
		Key:  key,
	}, false)
}

func (t *tableImpl) Head() (string, bool, error) {
	res, err := read[internal.CursorResult](t, internal.Query{
		Type: internal.QueryTHead,
	}, false)
	if err != nil {
		return "", false, err
	}
	return res.Key, res.Ok, nil
}

func (t *tableImpl) Tail() (string, bool, error) {
	res, err := read[internal.CursorResult](t, internal.Query{
		Type: internal.QueryTTail,
	}, false)
	if err != nil {
		return "", false, err
	}
	return res.Key, res.Ok, nil
}

func (t *tableImpl) Next(key string) (string, bool, error) {
	res, err := read[internal.CursorResult](t, internal.Query{
		Type: internal.QueryTNext,
		Key:  key,
	}, false)
	if err != nil {
		return "", false, err
	}
	return res.Key, res.Ok, nil
}

func (t *tableImpl) Prev(key string) (string, bool, error) {
	res, err := read[internal.CursorResult](t, internal.Query{
		Type: internal.QueryTPrev,
		Key:  key,
	}, false)
	if err != nil {
		return "", false, err
	}
	return res.Key, res.Ok, nil
}

func (t *tableImpl) Len() (uint64, error) {
	return read[uint64](t, internal.Query{
		Type: internal.QueryTLen,
	}, false)
}

func (t *tableImpl) Scan(after string, limit int) ([]string, bool, error) {
	res, err := read[internal.ScanResult](t, internal.Query{
		Type:  internal.QueryTScan,
		Key:   after,
		Limit: limit,
	}, false)
	if err != nil {
		return nil, false, err
	}
	return res.Keys, res.More, nil
}

func (t *tableImpl) Reap() (uint64, error) {
	data, err := t.write(internal.Command{
		Type: internal.CommandTReap,
	})
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, service.NewError(service.RetCInternalError,
			fmt.Sprintf("unexpected reap result length %d", len(data)))
	}
	return binary.BigEndian.Uint64(data), nil
}

func (t *tableImpl) GetServiceInfo() (service.ServiceInfo, error) {
	info, err := read[service.ServiceInfo](
		t,
		internal.Query{
			Type: internal.QueryTGetServiceInfo,
		},
		true, // Note: allow for stale reads
	)
	if err != nil {
		return service.ServiceInfo{}, err
	}
	info.Impl = service.ImplReplicated
	return info, nil
}

func (t *tableImpl) SupportsFeature(feature service.Feature) bool {
	supported := service.FeatureInsert |
		service.FeatureInsertTTL |
		service.FeatureInsertIfAbsent |
		service.FeatureRemove |
		service.FeatureTake |
		service.FeatureGet |
		service.FeatureHas |
		service.FeatureCursor |
		service.FeatureScan |
		service.FeatureReap
	return supported&feature == feature
}

func (t *tableImpl) Close() error {
	// The NodeHost is shared and owned by the caller
	return nil
}
