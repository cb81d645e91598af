package server

import (
	"bytes"
	"testing"

	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/lib/service/ltable"
	"github.com/okvlab/okv/rpc/common"
)

func newTestTable() service.ITable {
	return ltable.NewLocalTable(&ltable.Options{JanitorInterval: -1})
}

func TestITableAdapterInsertGet(t *testing.T) {
	adapter := NewITableServerAdapter()
	table := newTestTable()
	defer table.Close()

	resp := adapter.Handle(common.NewInsertRequest("key-1", []byte("value-1")), table)
	if resp.Err != "" {
		t.Fatalf("Insert failed: %s", resp.Err)
	}

	resp = adapter.Handle(common.NewGetRequest("key-1"), table)
	if resp.Err != "" {
		t.Fatalf("Get failed: %s", resp.Err)
	}
	if !resp.Ok {
		t.Fatal("Get reported key as absent")
	}
	if !bytes.Equal(resp.Value, []byte("value-1")) {
		t.Fatalf("Get returned wrong value: %q", resp.Value)
	}
}

func TestITableAdapterTakeReturnsCursors(t *testing.T) {
	adapter := NewITableServerAdapter()
	table := newTestTable()
	defer table.Close()

	for _, key := range []string{"a", "b", "c"} {
		if resp := adapter.Handle(common.NewInsertRequest(key, []byte(key)), table); resp.Err != "" {
			t.Fatalf("Insert %q failed: %s", key, resp.Err)
		}
	}

	resp := adapter.Handle(common.NewTakeRequest("b"), table)
	if resp.Err != "" {
		t.Fatalf("Take failed: %s", resp.Err)
	}
	if !resp.Ok {
		t.Fatal("Take reported key as absent")
	}
	if !resp.HasPrev || resp.PrevKey != "a" {
		t.Errorf("Expected predecessor 'a', got %q (hasPrev=%v)", resp.PrevKey, resp.HasPrev)
	}
	if !resp.HasNext || resp.NextKey != "c" {
		t.Errorf("Expected successor 'c', got %q (hasNext=%v)", resp.NextKey, resp.HasNext)
	}
}

func TestITableAdapterOrderQueries(t *testing.T) {
	adapter := NewITableServerAdapter()
	table := newTestTable()
	defer table.Close()

	for _, key := range []string{"first", "second", "third"} {
		adapter.Handle(common.NewInsertRequest(key, nil), table)
	}

	if resp := adapter.Handle(common.NewHeadRequest(), table); !resp.Ok || resp.Key != "first" {
		t.Errorf("Head: expected 'first', got %q (ok=%v)", resp.Key, resp.Ok)
	}
	if resp := adapter.Handle(common.NewTailRequest(), table); !resp.Ok || resp.Key != "third" {
		t.Errorf("Tail: expected 'third', got %q (ok=%v)", resp.Key, resp.Ok)
	}
	if resp := adapter.Handle(common.NewNextRequest("first"), table); !resp.Ok || resp.NextKey != "second" {
		t.Errorf("Next: expected 'second', got %q (ok=%v)", resp.NextKey, resp.Ok)
	}
	if resp := adapter.Handle(common.NewPrevRequest("third"), table); !resp.Ok || resp.PrevKey != "second" {
		t.Errorf("Prev: expected 'second', got %q (ok=%v)", resp.PrevKey, resp.Ok)
	}
	if resp := adapter.Handle(common.NewLenRequest(), table); resp.Count != 3 {
		t.Errorf("Len: expected 3, got %d", resp.Count)
	}

	resp := adapter.Handle(common.NewScanRequest("", 2), table)
	if resp.Err != "" {
		t.Fatalf("Scan failed: %s", resp.Err)
	}
	if len(resp.Keys) != 2 || resp.Keys[0] != "first" || resp.Keys[1] != "second" {
		t.Errorf("Scan page wrong: %v", resp.Keys)
	}
	if !resp.More {
		t.Error("Scan should report more pages")
	}
}

func TestITableAdapterErrorSurfacing(t *testing.T) {
	adapter := NewITableServerAdapter()
	table := newTestTable()
	defer table.Close()

	// Scan after an absent key yields a coded error in the Err field
	resp := adapter.Handle(common.NewScanRequest("no-such-key", 10), table)
	if resp.Err == "" {
		t.Error("Expected error for scan after absent key")
	}

	// Unknown message type
	resp = adapter.Handle(&common.Message{MsgType: common.MsgTCustom}, table)
	if resp.MsgType != common.MsgTError || resp.Err == "" {
		t.Error("Expected error response for unsupported message type")
	}

	// Nil table
	resp = adapter.Handle(common.NewGetRequest("x"), nil)
	if resp.MsgType != common.MsgTError {
		t.Error("Expected error response for nil table")
	}
}

func TestLeaseManagerAdapterAcquireRelease(t *testing.T) {
	adapter := NewLeaseManagerServerAdapter()
	table := newTestTable()
	defer table.Close()

	resp := adapter.Handle(common.NewAcquireRequest("lease-1", 0), table)
	if resp.Err != "" {
		t.Fatalf("Acquire failed: %s", resp.Err)
	}
	if !resp.Ok {
		t.Fatal("Acquire should succeed on a free lease")
	}
	token := resp.Value

	// Second acquire must fail while the lease is held
	resp = adapter.Handle(common.NewAcquireRequest("lease-1", 0), table)
	if resp.Ok {
		t.Error("Acquire should fail on a held lease")
	}

	// Release with the owner token
	resp = adapter.Handle(common.NewReleaseRequest("lease-1", token), table)
	if resp.Err != "" {
		t.Fatalf("Release failed: %s", resp.Err)
	}
	if !resp.Ok {
		t.Error("Release with owner token should succeed")
	}
}
