package ltable

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/okvlab/okv/lib/service"
)

func TestSnapshotRoundTrip(t *testing.T) {
	src := NewLocalTable(&Options{JanitorInterval: -1})
	defer src.Close()

	numKeys := 1_000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("snap-key-%d", i)
		value := []byte(fmt.Sprintf("snap-value-%d", i))
		if err := src.Insert(key, value); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := src.(service.ISnapshotter).SaveSnapshot(&buf); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	dst := NewLocalTable(&Options{JanitorInterval: -1})
	defer dst.Close()

	if err := dst.(service.ISnapshotter).LoadSnapshot(&buf); err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	// Same entries in the same order
	srcKey, srcOk, _ := src.Head()
	dstKey, dstOk, _ := dst.Head()
	count := 0
	for srcOk && dstOk {
		if srcKey != dstKey {
			t.Fatalf("Order mismatch at position %d: %s vs %s", count, srcKey, dstKey)
		}

		srcVal, _, _ := src.Get(srcKey)
		dstVal, _, _ := dst.Get(dstKey)
		if !bytes.Equal(srcVal, dstVal) {
			t.Fatalf("Value mismatch for key %s", srcKey)
		}

		srcKey, srcOk, _ = src.Next(srcKey)
		dstKey, dstOk, _ = dst.Next(dstKey)
		count++
	}
	if srcOk != dstOk {
		t.Fatalf("Tables have different lengths (walked %d entries)", count)
	}
	if count != numKeys {
		t.Fatalf("Expected %d entries, walked %d", numKeys, count)
	}
}

func TestSnapshotPreservesRemainingTTL(t *testing.T) {
	src := NewLocalTable(&Options{JanitorInterval: -1})
	defer src.Close()

	// Expires at tick 11
	if err := src.InsertTTL("expiring", []byte("v"), 10); err != nil {
		t.Fatalf("InsertTTL failed: %v", err)
	}

	var buf bytes.Buffer
	if err := src.(service.ISnapshotter).SaveSnapshot(&buf); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	dst := NewLocalTable(&Options{JanitorInterval: -1})
	defer dst.Close()

	if err := dst.(service.ISnapshotter).LoadSnapshot(&buf); err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	// The restored clock sits at tick 1, so 9 more writes keep the entry
	// alive and the 10th expires it
	for i := 0; i < 9; i++ {
		dst.Insert(fmt.Sprintf("filler-%d", i), []byte("x"))
	}
	_, exists, _ := dst.Get("expiring")
	if !exists {
		t.Fatalf("Entry expired too early after restore")
	}

	dst.Insert("filler-last", []byte("x"))
	_, exists, _ = dst.Get("expiring")
	if exists {
		t.Fatalf("Entry still readable past its restored lifetime")
	}
}

func TestLoadSnapshotRejectsGarbage(t *testing.T) {
	tbl := NewLocalTable(&Options{JanitorInterval: -1})
	defer tbl.Close()

	err := tbl.(service.ISnapshotter).LoadSnapshot(bytes.NewReader([]byte("not a snapshot")))
	if err == nil {
		t.Fatalf("Expected error for invalid snapshot data")
	}
}
