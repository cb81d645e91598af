package ltable

import (
	"testing"
	"time"

	"github.com/okvlab/okv/lib/service"
	svctesting "github.com/okvlab/okv/lib/service/testing"
)

func Test(t *testing.T) {
	svctesting.RunTableTests(t, "LocalTable", func() service.ITable {
		return NewLocalTable(nil)
	})
}

func TestNoJanitor(t *testing.T) {
	svctesting.RunTableTests(t, "LocalTableNoJanitor", func() service.ITable {
		return NewLocalTable(&Options{JanitorInterval: -1})
	})
}

func Benchmark(b *testing.B) {
	svctesting.RunTableBenchmarks(b, "LocalTable", func() service.ITable {
		return NewLocalTable(nil)
	})
}

// --------------------------------------------------------------------------
// Implementation specific tests
// --------------------------------------------------------------------------

// The janitor must remove due entries on its own, without an explicit Reap.
func TestJanitorReapsExpiredEntries(t *testing.T) {
	tbl := NewLocalTable(&Options{
		Clock:           NewSystemClock(),
		JanitorInterval: 10 * time.Millisecond,
	})
	defer tbl.Close()

	if err := tbl.InsertTTL("short-lived", []byte("v"), 20); err != nil {
		t.Fatalf("InsertTTL failed: %v", err)
	}
	if err := tbl.Insert("permanent", []byte("v")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Wait for expiry plus a few janitor cycles
	deadline := time.Now().Add(2 * time.Second)
	for {
		has, err := tbl.Has("short-lived")
		if err != nil {
			t.Fatalf("Has failed: %v", err)
		}
		if !has {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Janitor did not remove expired entry in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	has, err := tbl.Has("permanent")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Errorf("Janitor removed a permanent entry")
	}
}

// Re-inserting a key without TTL must cancel its pending deadline.
func TestJanitorDeadlineCancelledOnOverwrite(t *testing.T) {
	tbl := NewLocalTable(&Options{
		Clock:           NewSystemClock(),
		JanitorInterval: 10 * time.Millisecond,
	})
	defer tbl.Close()

	if err := tbl.InsertTTL("key", []byte("v1"), 20); err != nil {
		t.Fatalf("InsertTTL failed: %v", err)
	}
	if err := tbl.Insert("key", []byte("v2")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Well past the original deadline the entry must still be readable
	time.Sleep(200 * time.Millisecond)

	value, exists, err := tbl.Get("key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Fatalf("Entry removed although the overwrite cleared its TTL")
	}
	if string(value) != "v2" {
		t.Errorf("Expected value v2, got %s", value)
	}
}

func TestLogicalClockIsDeterministic(t *testing.T) {
	run := func() (bool, bool) {
		tbl := NewLocalTable(&Options{JanitorInterval: -1})
		defer tbl.Close()

		tbl.InsertTTL("a", []byte("v"), 2)
		tbl.Insert("b", []byte("v")) // tick 2
		_, aliveAt2, _ := tbl.Get("a")
		tbl.Insert("c", []byte("v")) // tick 3, a expires
		_, aliveAt3, _ := tbl.Get("a")
		return aliveAt2, aliveAt3
	}

	for i := 0; i < 10; i++ {
		aliveAt2, aliveAt3 := run()
		if !aliveAt2 {
			t.Fatalf("Run %d: entry expired before its lifetime elapsed", i)
		}
		if aliveAt3 {
			t.Fatalf("Run %d: entry readable after its lifetime elapsed", i)
		}
	}
}
