// Package testing provides a reusable test and benchmark suite for
// service.ITable implementations. Implementations pass a factory and get the
// full behavioral suite: ordering, TTL expiry, sweep resumption, and
// concurrency checks.
package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okvlab/okv/lib/service"
)

// TableFactory is a function that creates a new instance of an ITable
// implementation.
type TableFactory func() service.ITable

// RunTableTests runs a comprehensive test suite for an ITable implementation.
func RunTableTests(t *testing.T, name string, factory TableFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Insert&Get", func(t *testing.T) {
			testInsertGet(t, factory())
		})

		t.Run("InsertionOrder", func(t *testing.T) {
			testInsertionOrder(t, factory())
		})

		t.Run("InsertResetsPosition", func(t *testing.T) {
			testInsertResetsPosition(t, factory())
		})

		t.Run("InsertIfAbsent", func(t *testing.T) {
			testInsertIfAbsent(t, factory())
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory())
		})

		t.Run("Take", func(t *testing.T) {
			testTake(t, factory())
		})

		t.Run("TakeDrivenTraversal", func(t *testing.T) {
			testTakeDrivenTraversal(t, factory())
		})

		t.Run("Scan", func(t *testing.T) {
			testScan(t, factory())
		})

		t.Run("TTLExpiry", func(t *testing.T) {
			testTTLExpiry(t, factory())
		})

		t.Run("Reap", func(t *testing.T) {
			testReap(t, factory())
		})

		t.Run("ServiceInfo", func(t *testing.T) {
			testServiceInfo(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the table supports the specified feature.
// Skip the test if it is not supported.
func requireFeature(t testing.TB, tbl service.ITable, feature service.Feature) {
	if !tbl.SupportsFeature(feature) {
		t.Skip()
	}
}

// must fails the test on an unexpected error.
func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// collectOrder walks the table head to tail via Next and returns the keys.
func collectOrder(t testing.TB, tbl service.ITable) []string {
	t.Helper()

	var keys []string
	key, ok, err := tbl.Head()
	must(t, err)
	for ok {
		keys = append(keys, key)
		key, ok, err = tbl.Next(key)
		must(t, err)
	}
	return keys
}

// expectOrder checks that the table holds exactly the given keys in order,
// verified both forward (Head/Next) and backward (Tail/Prev).
func expectOrder(t testing.TB, tbl service.ITable, want []string) {
	t.Helper()

	got := collectOrder(t, tbl)
	if len(got) != len(want) {
		t.Errorf("Expected order %v, got %v", want, got)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected order %v, got %v", want, got)
			return
		}
	}

	// Backward pass
	key, ok, err := tbl.Tail()
	must(t, err)
	for i := len(want) - 1; i >= 0; i-- {
		if !ok {
			t.Errorf("Backward walk ended early at position %d", i)
			return
		}
		if key != want[i] {
			t.Errorf("Backward walk: expected %s at position %d, got %s", want[i], i, key)
			return
		}
		key, ok, err = tbl.Prev(key)
		must(t, err)
	}
	if ok {
		t.Errorf("Backward walk continued past the head (at %s)", key)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testInsertGet(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	must(t, tbl.Insert(testKey, testValue1))

	result, exists, err := tbl.Get(testKey)
	must(t, err)
	if !exists {
		t.Errorf("Expected key %s to exist after Insert", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	must(t, tbl.Insert(testKey, testValue2))

	result, exists, err = tbl.Get(testKey)
	must(t, err)
	if !exists {
		t.Errorf("Expected key %s to exist after Insert", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists, err = tbl.Get("nonexistent-key")
	must(t, err)
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// Get must return a copy, not a reference to the stored value
	retrievedValue, _, err := tbl.Get(testKey)
	must(t, err)
	retrievedValue[0] = 'X'

	originalValue, _, err := tbl.Get(testKey)
	must(t, err)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testInsertionOrder(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureCursor)

	_, ok, err := tbl.Head()
	must(t, err)
	if ok {
		t.Errorf("Expected no head on empty table")
	}
	_, ok, err = tbl.Tail()
	must(t, err)
	if ok {
		t.Errorf("Expected no tail on empty table")
	}

	numKeys := 100
	want := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("order-key-%03d", i)
		want[i] = key
		must(t, tbl.Insert(key, []byte(fmt.Sprintf("value-%d", i))))
	}

	expectOrder(t, tbl, want)

	n, err := tbl.Len()
	must(t, err)
	if n != uint64(numKeys) {
		t.Errorf("Expected Len %d, got %d", numKeys, n)
	}
}

func testInsertResetsPosition(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureCursor)

	must(t, tbl.Insert("a", []byte("1")))
	must(t, tbl.Insert("b", []byte("2")))
	must(t, tbl.Insert("c", []byte("3")))

	// Re-inserting a moves it behind c
	must(t, tbl.Insert("a", []byte("1*")))

	expectOrder(t, tbl, []string{"b", "c", "a"})

	result, exists, err := tbl.Get("a")
	must(t, err)
	if !exists || !bytes.Equal(result, []byte("1*")) {
		t.Errorf("Expected re-inserted value 1*, got %s (exists=%v)", result, exists)
	}

	n, err := tbl.Len()
	must(t, err)
	if n != 3 {
		t.Errorf("Expected Len 3 after re-insert, got %d", n)
	}
}

func testInsertIfAbsent(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureInsertIfAbsent)
	requireFeature(t, tbl, service.FeatureCursor)

	testKey := "test-key"
	testValue1 := []byte("test-value")
	testValue2 := []byte("test-value2")

	must(t, tbl.InsertIfAbsent(testKey, testValue1, 0))

	result, exists, err := tbl.Get(testKey)
	must(t, err)
	if !exists || !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s (exists=%v)", testValue1, result, exists)
	}

	// Key present: must keep the first value and the position
	must(t, tbl.Insert("other", []byte("x")))
	must(t, tbl.InsertIfAbsent(testKey, testValue2, 0))

	result, exists, err = tbl.Get(testKey)
	must(t, err)
	if !exists || !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s after InsertIfAbsent on present key, got %s", testValue1, result)
	}

	expectOrder(t, tbl, []string{testKey, "other"})
}

func testRemove(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureRemove)
	requireFeature(t, tbl, service.FeatureCursor)

	must(t, tbl.Insert("a", []byte("1")))
	must(t, tbl.Insert("b", []byte("2")))
	must(t, tbl.Insert("c", []byte("3")))

	must(t, tbl.Remove("b"))

	_, exists, err := tbl.Get("b")
	must(t, err)
	if exists {
		t.Errorf("Expected key b to not exist after Remove")
	}

	has, err := tbl.Has("b")
	must(t, err)
	if has {
		t.Errorf("Expected Has to return false after Remove")
	}

	expectOrder(t, tbl, []string{"a", "c"})

	// Removing an absent key is a no-op
	must(t, tbl.Remove("nonexistent-key"))
	must(t, tbl.Remove("b"))

	expectOrder(t, tbl, []string{"a", "c"})
}

func testTake(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureTake)
	requireFeature(t, tbl, service.FeatureCursor)

	must(t, tbl.Insert("a", []byte("1")))
	must(t, tbl.Insert("b", []byte("2")))
	must(t, tbl.Insert("c", []byte("3")))

	// Middle: both neighbors reported
	removed, ok, err := tbl.Take("b")
	must(t, err)
	if !ok {
		t.Fatalf("Expected Take of present key to succeed")
	}
	if !bytes.Equal(removed.Value, []byte("2")) {
		t.Errorf("Expected taken value 2, got %s", removed.Value)
	}
	if !removed.HasPrev || removed.Prev != "a" {
		t.Errorf("Expected prev neighbor a, got %q (has=%v)", removed.Prev, removed.HasPrev)
	}
	if !removed.HasNext || removed.Next != "c" {
		t.Errorf("Expected next neighbor c, got %q (has=%v)", removed.Next, removed.HasNext)
	}

	// Head: no prev neighbor
	removed, ok, err = tbl.Take("a")
	must(t, err)
	if !ok || removed.HasPrev {
		t.Errorf("Expected head take with no prev neighbor (ok=%v, hasPrev=%v)", ok, removed.HasPrev)
	}
	if !removed.HasNext || removed.Next != "c" {
		t.Errorf("Expected next neighbor c, got %q", removed.Next)
	}

	// Last entry: no neighbors
	removed, ok, err = tbl.Take("c")
	must(t, err)
	if !ok || removed.HasPrev || removed.HasNext {
		t.Errorf("Expected lone take with no neighbors (ok=%v)", ok)
	}

	// Absent key
	_, ok, err = tbl.Take("nonexistent-key")
	must(t, err)
	if ok {
		t.Errorf("Expected Take of absent key to report ok=false")
	}

	n, err := tbl.Len()
	must(t, err)
	if n != 0 {
		t.Errorf("Expected empty table after taking all keys, got Len %d", n)
	}
}

// testTakeDrivenTraversal walks the table while removing entries, resuming
// each time from the successor reported by Take.
func testTakeDrivenTraversal(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureTake)
	requireFeature(t, tbl, service.FeatureCursor)

	numKeys := 50
	for i := 0; i < numKeys; i++ {
		must(t, tbl.Insert(fmt.Sprintf("sweep-key-%03d", i), []byte{byte(i)}))
	}

	// Remove every even key during a single forward traversal
	var kept []string
	key, ok, err := tbl.Head()
	must(t, err)
	i := 0
	for ok {
		if i%2 == 0 {
			removed, takeOk, err := tbl.Take(key)
			must(t, err)
			if !takeOk {
				t.Fatalf("Take of %s failed mid-traversal", key)
			}
			key, ok = removed.Next, removed.HasNext
		} else {
			kept = append(kept, key)
			key, ok, err = tbl.Next(key)
			must(t, err)
		}
		i++
	}

	if i != numKeys {
		t.Errorf("Expected to visit %d keys, visited %d", numKeys, i)
	}
	expectOrder(t, tbl, kept)
}

func testScan(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureScan)

	numKeys := 25
	want := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("scan-key-%03d", i)
		want[i] = key
		must(t, tbl.Insert(key, []byte("v")))
	}

	// Page through the whole table
	var got []string
	after := ""
	for {
		keys, more, err := tbl.Scan(after, 10)
		must(t, err)
		got = append(got, keys...)
		if !more {
			break
		}
		after = keys[len(keys)-1]
	}

	if len(got) != numKeys {
		t.Fatalf("Expected %d scanned keys, got %d", numKeys, len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan order mismatch at %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	// Scan from an absent key fails with KeyNotFound
	_, _, err := tbl.Scan("nonexistent-key", 10)
	var svcErr *service.Error
	if err == nil {
		t.Errorf("Expected error for scan from absent key")
	} else if !errors.As(err, &svcErr) || svcErr.Code != service.RetCKeyNotFound {
		t.Errorf("Expected KeyNotFound error, got %v", err)
	}

	// Zero limit returns no keys but reports more
	keys, more, err := tbl.Scan("", 0)
	must(t, err)
	if len(keys) != 0 || !more {
		t.Errorf("Expected empty page with more=true for limit 0, got %v (more=%v)", keys, more)
	}
}

func testTTLExpiry(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureInsertTTL)

	// With a per-write clock the entry expires after two more writes
	must(t, tbl.InsertTTL("expiring-key", []byte("v"), 2))
	must(t, tbl.Insert("filler-1", []byte("x")))

	_, exists, err := tbl.Get("expiring-key")
	must(t, err)
	if !exists {
		t.Errorf("Key should still be readable one tick before expiry")
	}

	must(t, tbl.Insert("filler-2", []byte("x")))

	_, exists, err = tbl.Get("expiring-key")
	must(t, err)
	if exists {
		t.Errorf("Key should not be readable after its lifetime elapsed")
	}

	// Expired but unreaped entries are still present
	has, err := tbl.Has("expiring-key")
	must(t, err)
	if !has {
		t.Errorf("Expected Has to report an expired but unreaped key")
	}

	// TTL 0 never expires
	must(t, tbl.InsertTTL("immortal-key", []byte("v"), 0))
	for i := 0; i < 100; i++ {
		must(t, tbl.Insert(fmt.Sprintf("filler-%d", i+3), []byte("x")))
	}
	_, exists, err = tbl.Get("immortal-key")
	must(t, err)
	if !exists {
		t.Errorf("Key with TTL=0 should never expire")
	}
}

func testReap(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureInsertTTL)
	requireFeature(t, tbl, service.FeatureReap)
	requireFeature(t, tbl, service.FeatureCursor)

	// Interleave expiring and permanent keys
	must(t, tbl.InsertTTL("exp-1", []byte("v"), 1))
	must(t, tbl.Insert("live-1", []byte("v")))
	must(t, tbl.InsertTTL("exp-2", []byte("v"), 1))
	must(t, tbl.Insert("live-2", []byte("v")))

	// All TTLs are due by now (every write advanced the clock)
	reaped, err := tbl.Reap()
	must(t, err)
	if reaped != 2 {
		t.Errorf("Expected 2 reaped entries, got %d", reaped)
	}

	expectOrder(t, tbl, []string{"live-1", "live-2"})

	// Second reap finds nothing
	reaped, err = tbl.Reap()
	must(t, err)
	if reaped != 0 {
		t.Errorf("Expected 0 reaped entries on clean table, got %d", reaped)
	}
}

func testServiceInfo(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)

	must(t, tbl.Insert("a", []byte("1")))
	must(t, tbl.Insert("b", []byte("2")))

	info, err := tbl.GetServiceInfo()
	must(t, err)

	if info.Entries != 2 {
		t.Errorf("Expected 2 entries in service info, got %d", info.Entries)
	}
	if info.HeadKey != "a" || info.TailKey != "b" {
		t.Errorf("Expected head a and tail b, got %s and %s", info.HeadKey, info.TailKey)
	}
	if len(info.SupportedFeatures) == 0 {
		t.Errorf("Expected service info to list supported features")
	}
	for _, f := range info.SupportedFeatures {
		if !tbl.SupportsFeature(f) {
			t.Errorf("Feature %s listed in info but not supported", f)
		}
	}
}

func testEdgeCases(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureGet)

	emptyKey := ""
	emptyKeyValue := []byte("value for empty key")

	must(t, tbl.Insert(emptyKey, emptyKeyValue))

	result, exists, err := tbl.Get(emptyKey)
	must(t, err)
	if !exists {
		t.Errorf("Empty key not found after Insert")
	} else if !bytes.Equal(result, emptyKeyValue) {
		t.Errorf("Value mismatch for empty key")
	}

	nilValueKey := "nil-value-key"
	must(t, tbl.Insert(nilValueKey, nil))

	result, exists, err = tbl.Get(nilValueKey)
	must(t, err)
	if !exists {
		t.Errorf("Key for nil value not found after Insert")
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	largeKey := string(make([]byte, 1000))
	largeKeyValue := []byte("value for large key")

	must(t, tbl.Insert(largeKey, largeKeyValue))

	result, exists, err = tbl.Get(largeKey)
	must(t, err)
	if !exists {
		t.Errorf("Large key not found after Insert")
	} else if !bytes.Equal(result, largeKeyValue) {
		t.Errorf("Value mismatch for large key")
	}

	largeValueKey := "large-value-key"
	largeValue := make([]byte, 8*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}

	must(t, tbl.Insert(largeValueKey, largeValue))

	result, exists, err = tbl.Get(largeValueKey)
	must(t, err)
	if !exists {
		t.Errorf("Key for large value not found after Insert")
	} else if !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch (len %d vs %d)", len(result), len(largeValue))
	}
}

func testConcurrentUsage(t *testing.T, tbl service.ITable) {
	defer tbl.Close()

	requireFeature(t, tbl, service.FeatureInsert)
	requireFeature(t, tbl, service.FeatureRemove)
	requireFeature(t, tbl, service.FeatureCursor)

	numWorkers := 8
	opsPerWorker := 1_000

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", workerId, i%100)

				switch i % 10 {
				case 0, 1, 2, 3, 4, 5:
					tbl.Insert(key, []byte(fmt.Sprintf("value-%d", i)))
				case 6, 7:
					tbl.Get(key)
				case 8:
					tbl.Next(key)
				case 9:
					tbl.Remove(key)
				}
			}
		}(w)
	}

	wg.Wait()

	// The table must still be structurally sound: a full forward walk visits
	// exactly Len entries and the backward walk mirrors it
	n, err := tbl.Len()
	must(t, err)
	keys := collectOrder(t, tbl)
	if uint64(len(keys)) != n {
		t.Errorf("Forward walk visited %d keys but Len is %d", len(keys), n)
	}
	expectOrder(t, tbl, keys)
}
