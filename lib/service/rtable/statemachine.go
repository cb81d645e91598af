package rtable

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/lib/service/rtable/internal"

	sm "github.com/lni/dragonboat/v4/statemachine"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// TableStateMachine is a state machine implementation for Dragonboat RAFT.
// Every replica applies the same command sequence to its local table, so the
// backing implementation must be deterministic: use an ltable with a logical
// clock and the janitor disabled, and reap only through proposed Reap
// commands.
type TableStateMachine struct {
	replicaID uint64
	shardID   uint64
	table     service.ITable // the actual table storage
}

// CreateStateMachineFactory returns a function that can be used by dragonboat
// to create a new state machine for a node host. The factory pattern is used
// to enable the caller to pass an interchangeable table factory.
func CreateStateMachineFactory(tableFactory service.TableFactory) func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		return &TableStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			table:     tableFactory(),
		}
	}
}

// Lookup handles read-only queries by mapping each Query operation to the
// corresponding ITable method.
func (fsm *TableStateMachine) Lookup(itf interface{}) (interface{}, error) {

	// try to parse the request into a Query struct
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, service.NewError(service.RetCInternalError, fmt.Sprintf("invalid Query type: %T", itf))
	}

	// Handle different Query types
	switch q.Type {
	case internal.QueryTGet:
		if !fsm.table.SupportsFeature(service.FeatureGet) {
			return nil, service.NewError(service.RetCUnsupportedOperation, "Get operation is not supported")
		}
		val, ok, err := fsm.table.Get(q.Key)
		if err != nil {
			return nil, err
		}
		return internal.GetResult{Value: val, Ok: ok}, nil
	case internal.QueryTHas:
		if !fsm.table.SupportsFeature(service.FeatureHas) {
			return nil, service.NewError(service.RetCUnsupportedOperation, "Has operation is not supported")
		}
		ok, err := fsm.table.Has(q.Key)
		if err != nil {
			return nil, err
		}
		return ok, nil
	case internal.QueryTHead, internal.QueryTTail, internal.QueryTNext, internal.QueryTPrev:
		if !fsm.table.SupportsFeature(service.FeatureCursor) {
			return nil, service.NewError(service.RetCUnsupportedOperation, "cursor operations are not supported")
		}
		var (
			key string
			ok  bool
			err error
		)
		switch q.Type {
		case internal.QueryTHead:
			key, ok, err = fsm.table.Head()
		case internal.QueryTTail:
			key, ok, err = fsm.table.Tail()
		case internal.QueryTNext:
			key, ok, err = fsm.table.Next(q.Key)
		default:
			key, ok, err = fsm.table.Prev(q.Key)
		}
		if err != nil {
			return nil, err
		}
		return internal.CursorResult{Key: key, Ok: ok}, nil
	case internal.QueryTLen:
		n, err := fsm.table.Len()
		if err != nil {
			return nil, err
		}
		return n, nil
	case internal.QueryTScan:
		if !fsm.table.SupportsFeature(service.FeatureScan) {
			return nil, service.NewError(service.RetCUnsupportedOperation, "Scan operation is not supported")
		}
		keys, more, err := fsm.table.Scan(q.Key, q.Limit)
		if err != nil {
			return nil, err
		}
		return internal.ScanResult{Keys: keys, More: more}, nil
	case internal.QueryTGetServiceInfo:
		return fsm.table.GetServiceInfo()
	default:
		return nil, service.NewError(service.RetCInvalidOperation, fmt.Sprintf("unknown Query operation: %d", q.Type))
	}
}

// Update handles write commands on the table instance.
// All write operations are serialized into []byte and are accessible via the
// entries struct.
func (fsm *TableStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {

	// Nothing to do
	if len(entries) == 0 {
		return entries, nil
	}

	// Stats
	start := time.Now()

	for idx, e := range entries {
		// Handle each entry
		if len(e.Cmd) == 0 {
			entries[idx].Result = sm.Result{Value: uint64(service.RetCInvalidOperation), Data: []byte("empty command ignored")}
			continue
		}
		// Deserialize the command
		cmd := internal.Command{}
		err := cmd.Deserialize(e.Cmd)
		if err != nil {
			entries[idx].Result = sm.Result{Value: uint64(service.RetCInternalError), Data: []byte(fmt.Sprintf("failed to deserialize command: %v", err))}
			continue
		}

		// Check if the table supports the operation
		feat, err := cmd.Type.ToFeature()
		if err != nil {
			entries[idx].Result = sm.Result{
				Value: uint64(service.RetCInvalidOperation),
				Data:  []byte(fmt.Sprintf("unknown Command operation: %s", cmd.Type)),
			}
			continue
		}
		if !fsm.table.SupportsFeature(feat) {
			entries[idx].Result = sm.Result{
				Value: uint64(service.RetCUnsupportedOperation),
				Data:  []byte(fmt.Sprintf("%s operation is not supported", cmd.Type)),
			}
			continue
		}

		switch cmd.Type {
		case internal.CommandTInsert:
			err = fsm.table.Insert(cmd.Key, cmd.Value)
		case internal.CommandTInsertTTL:
			err = fsm.table.InsertTTL(cmd.Key, cmd.Value, cmd.TTL)
		case internal.CommandTInsertIfAbsent:
			err = fsm.table.InsertIfAbsent(cmd.Key, cmd.Value, cmd.TTL)
		case internal.CommandTRemove:
			err = fsm.table.Remove(cmd.Key)
		case internal.CommandTTake:
			removed, ok, takeErr := fsm.table.Take(cmd.Key)
			if takeErr != nil {
				err = takeErr
				break
			}
			result := internal.TakeResult{Ok: ok, Removed: removed}
			entries[idx].Result = sm.Result{
				Value: uint64(service.RetCSuccess),
				Data:  result.Serialize(),
			}
			continue
		case internal.CommandTReap:
			reaped, reapErr := fsm.table.Reap()
			if reapErr != nil {
				err = reapErr
				break
			}
			count := make([]byte, 8)
			binary.BigEndian.PutUint64(count, reaped)
			entries[idx].Result = sm.Result{
				Value: uint64(service.RetCSuccess),
				Data:  count,
			}
			continue
		default:
			entries[idx].Result = sm.Result{
				Value: uint64(service.RetCInvalidOperation),
				Data:  []byte(fmt.Sprintf("unknown Command operation: %s", cmd.Type)),
			}
			continue
		}

		if err != nil {
			entries[idx].Result = sm.Result{Value: uint64(service.RetCInternalError), Data: []byte(err.Error())}
			continue
		}
		entries[idx].Result = sm.Result{
			Value: uint64(service.RetCSuccess),
			Data:  []byte(fmt.Sprintf("%s: key=%s", cmd.Type, cmd.Key)),
		}
	}

	// Log if the update took long
	if elapsed := time.Since(start); elapsed > time.Millisecond {
		log.Infof("State machine took long to update. Batch updated %d entries, took %.2fms", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

// PrepareSnapshot is not used. We don't need to prepare anything since the
// snapshotter serializes a consistent view on its own.
func (fsm *TableStateMachine) PrepareSnapshot() (interface{}, error) {
	return nil, nil
}

// SaveSnapshot saves a table snapshot to the writer.
func (fsm *TableStateMachine) SaveSnapshot(_ interface{}, writer io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	snapshotter, ok := fsm.table.(service.ISnapshotter)
	if !ok {
		return fmt.Errorf("the used ITable implementation does not support snapshots")
	}
	return snapshotter.SaveSnapshot(writer)
}

// RecoverFromSnapshot restores the table from a snapshot.
func (fsm *TableStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	snapshotter, ok := fsm.table.(service.ISnapshotter)
	if !ok {
		return fmt.Errorf("the used ITable implementation does not support snapshots")
	}
	return snapshotter.LoadSnapshot(r)
}

// Close performs any necessary cleanup.
func (fsm *TableStateMachine) Close() error {
	return fsm.table.Close()
}
