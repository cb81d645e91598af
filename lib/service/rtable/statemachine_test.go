package rtable

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/lib/service/ltable"
	"github.com/okvlab/okv/lib/service/rtable/internal"

	sm "github.com/lni/dragonboat/v4/statemachine"
)

// newTestMachine builds a state machine around a deterministic local table,
// the same configuration a replica would use.
func newTestMachine() sm.IConcurrentStateMachine {
	factory := CreateStateMachineFactory(func() service.ITable {
		return ltable.NewLocalTable(&ltable.Options{JanitorInterval: -1})
	})
	return factory(1, 1)
}

func apply(t *testing.T, fsm sm.IConcurrentStateMachine, cmd internal.Command) sm.Result {
	t.Helper()

	entries := []sm.Entry{{Cmd: cmd.Serialize()}}
	entries, err := fsm.Update(entries)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return entries[0].Result
}

func lookup[R any](t *testing.T, fsm sm.IConcurrentStateMachine, q internal.Query) R {
	t.Helper()

	res, err := fsm.Lookup(q)
	if err != nil {
		t.Fatalf("Lookup %s failed: %v", q.Type, err)
	}
	casted, ok := res.(R)
	if !ok {
		t.Fatalf("Lookup %s returned %T", q.Type, res)
	}
	return casted
}

func TestStateMachineAppliesWritesInOrder(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	for _, key := range []string{"a", "b", "c"} {
		res := apply(t, fsm, internal.Command{Type: internal.CommandTInsert, Key: key, Value: []byte(key)})
		if res.Value != uint64(service.RetCSuccess) {
			t.Fatalf("Insert %s failed: %s", key, res.Data)
		}
	}

	head := lookup[internal.CursorResult](t, fsm, internal.Query{Type: internal.QueryTHead})
	if !head.Ok || head.Key != "a" {
		t.Errorf("Expected head a, got %q (ok=%v)", head.Key, head.Ok)
	}
	tail := lookup[internal.CursorResult](t, fsm, internal.Query{Type: internal.QueryTTail})
	if !tail.Ok || tail.Key != "c" {
		t.Errorf("Expected tail c, got %q (ok=%v)", tail.Key, tail.Ok)
	}

	// Re-insert moves a behind c
	apply(t, fsm, internal.Command{Type: internal.CommandTInsert, Key: "a", Value: []byte("a2")})

	tail = lookup[internal.CursorResult](t, fsm, internal.Query{Type: internal.QueryTTail})
	if tail.Key != "a" {
		t.Errorf("Expected tail a after re-insert, got %q", tail.Key)
	}

	get := lookup[internal.GetResult](t, fsm, internal.Query{Type: internal.QueryTGet, Key: "a"})
	if !get.Ok || !bytes.Equal(get.Value, []byte("a2")) {
		t.Errorf("Expected re-inserted value a2, got %s", get.Value)
	}
}

func TestStateMachineTakeReturnsNeighbors(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	for _, key := range []string{"a", "b", "c"} {
		apply(t, fsm, internal.Command{Type: internal.CommandTInsert, Key: key, Value: []byte(key)})
	}

	res := apply(t, fsm, internal.Command{Type: internal.CommandTTake, Key: "b"})
	if res.Value != uint64(service.RetCSuccess) {
		t.Fatalf("Take failed: %s", res.Data)
	}

	var takeResult internal.TakeResult
	if err := takeResult.Deserialize(res.Data); err != nil {
		t.Fatalf("Failed to decode take result: %v", err)
	}
	if !takeResult.Ok {
		t.Fatalf("Expected take of present key to succeed")
	}
	if takeResult.Removed.Prev != "a" || !takeResult.Removed.HasPrev {
		t.Errorf("Expected prev neighbor a, got %q", takeResult.Removed.Prev)
	}
	if takeResult.Removed.Next != "c" || !takeResult.Removed.HasNext {
		t.Errorf("Expected next neighbor c, got %q", takeResult.Removed.Next)
	}
	if !bytes.Equal(takeResult.Removed.Value, []byte("b")) {
		t.Errorf("Expected taken value b, got %s", takeResult.Removed.Value)
	}

	// Absent key: still a successful command, Ok=false in the payload
	res = apply(t, fsm, internal.Command{Type: internal.CommandTTake, Key: "b"})
	if res.Value != uint64(service.RetCSuccess) {
		t.Fatalf("Take of absent key failed: %s", res.Data)
	}
	if err := takeResult.Deserialize(res.Data); err != nil {
		t.Fatalf("Failed to decode take result: %v", err)
	}
	if takeResult.Ok {
		t.Errorf("Expected take of absent key to report Ok=false")
	}
}

func TestStateMachineReapCountsRemovals(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	apply(t, fsm, internal.Command{Type: internal.CommandTInsertTTL, Key: "exp-1", TTL: 1, Value: []byte("v")})
	apply(t, fsm, internal.Command{Type: internal.CommandTInsert, Key: "live", Value: []byte("v")})
	apply(t, fsm, internal.Command{Type: internal.CommandTInsertTTL, Key: "exp-2", TTL: 1, Value: []byte("v")})
	apply(t, fsm, internal.Command{Type: internal.CommandTInsert, Key: "filler", Value: []byte("v")})

	res := apply(t, fsm, internal.Command{Type: internal.CommandTReap})
	if res.Value != uint64(service.RetCSuccess) {
		t.Fatalf("Reap failed: %s", res.Data)
	}
	if got := binary.BigEndian.Uint64(res.Data); got != 2 {
		t.Errorf("Expected reap count 2, got %d", got)
	}

	length := lookup[uint64](t, fsm, internal.Query{Type: internal.QueryTLen})
	if length != 2 {
		t.Errorf("Expected 2 remaining entries, got %d", length)
	}
}

func TestStateMachineRejectsMalformedCommands(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	entries := []sm.Entry{
		{Cmd: nil},
		{Cmd: []byte{1, 2}},
		{Cmd: (&internal.Command{Type: internal.CommandType(200), Key: "x"}).Serialize()},
	}
	entries, err := fsm.Update(entries)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if entries[0].Result.Value != uint64(service.RetCInvalidOperation) {
		t.Errorf("Empty command should report InvalidOperation, got %d", entries[0].Result.Value)
	}
	if entries[1].Result.Value != uint64(service.RetCInternalError) {
		t.Errorf("Truncated command should report InternalError, got %d", entries[1].Result.Value)
	}
	if entries[2].Result.Value != uint64(service.RetCInvalidOperation) {
		t.Errorf("Unknown command type should report InvalidOperation, got %d", entries[2].Result.Value)
	}
}

func TestStateMachineScanLookup(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	want := []string{"k1", "k2", "k3", "k4", "k5"}
	for _, key := range want {
		apply(t, fsm, internal.Command{Type: internal.CommandTInsert, Key: key, Value: []byte("v")})
	}

	page := lookup[internal.ScanResult](t, fsm, internal.Query{Type: internal.QueryTScan, Limit: 3})
	if len(page.Keys) != 3 || !page.More {
		t.Fatalf("Expected first page of 3 with more=true, got %v (more=%v)", page.Keys, page.More)
	}

	rest := lookup[internal.ScanResult](t, fsm, internal.Query{
		Type:  internal.QueryTScan,
		Key:   page.Keys[len(page.Keys)-1],
		Limit: 10,
	})
	if len(rest.Keys) != 2 || rest.More {
		t.Fatalf("Expected final page of 2 with more=false, got %v (more=%v)", rest.Keys, rest.More)
	}

	got := append(page.Keys, rest.Keys...)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan order mismatch at %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestStateMachineSnapshotRoundTrip(t *testing.T) {
	src := newTestMachine()
	defer src.Close()

	for _, key := range []string{"a", "b", "c"} {
		apply(t, src, internal.Command{Type: internal.CommandTInsert, Key: key, Value: []byte(key)})
	}

	var buf bytes.Buffer
	if err := src.SaveSnapshot(nil, &buf, nil, nil); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	dst := newTestMachine()
	defer dst.Close()

	if err := dst.RecoverFromSnapshot(&buf, nil, nil); err != nil {
		t.Fatalf("RecoverFromSnapshot failed: %v", err)
	}

	head := lookup[internal.CursorResult](t, dst, internal.Query{Type: internal.QueryTHead})
	if head.Key != "a" {
		t.Errorf("Expected head a after recovery, got %q", head.Key)
	}
	length := lookup[uint64](t, dst, internal.Query{Type: internal.QueryTLen})
	if length != 3 {
		t.Errorf("Expected 3 entries after recovery, got %d", length)
	}
}
