package testing

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/okvlab/okv/lib/service"
)

// RunTableBenchmarks runs all benchmarks for an ITable implementation.
func RunTableBenchmarks(b *testing.B, name string, factory TableFactory) {

	b.Run("Insert", func(b *testing.B) {
		benchmarkInsert(b, factory())
	})

	b.Run("InsertExisting", func(b *testing.B) {
		benchmarkInsertExisting(b, factory())
	})

	b.Run("InsertTTL", func(b *testing.B) {
		benchmarkInsertTTL(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("Next", func(b *testing.B) {
		benchmarkNext(b, factory())
	})

	b.Run("Take", func(b *testing.B) {
		benchmarkTake(b, factory())
	})

	b.Run("Reap", func(b *testing.B) {
		benchmarkReap(b, factory())
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkInsert(b *testing.B, tbl service.ITable) {
	b.Cleanup(func() {
		tbl.Close()
	})

	requireFeature(b, tbl, service.FeatureInsert)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			tbl.Insert(key, value)
			counter++
		}
	})
}

// Re-inserting moves the entry to the tail, so this exercises the unlink
// path as well as the append path.
func benchmarkInsertExisting(b *testing.B, tbl service.ITable) {
	b.Cleanup(func() {
		tbl.Close()
	})

	requireFeature(b, tbl, service.FeatureInsert)

	numKeys := 10_000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		tbl.Insert(key, []byte(fmt.Sprintf("test-value-%d", i)))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			tbl.Insert(key, value)
			counter++
		}
	})
}

func benchmarkInsertTTL(b *testing.B, tbl service.ITable) {
	b.Cleanup(func() {
		tbl.Close()
	})

	requireFeature(b, tbl, service.FeatureInsertTTL)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-ttl-key-%d", counter)
			value := []byte(fmt.Sprintf("test-ttl-value-%d", counter))
			tbl.InsertTTL(key, value, uint64(counter%1000+1))
			counter++
		}
	})
}

func benchmarkGet(b *testing.B, tbl service.ITable) {
	b.Cleanup(func() {
		tbl.Close()
	})

	requireFeature(b, tbl, service.FeatureInsert)
	requireFeature(b, tbl, service.FeatureGet)

	numKeys := 10_000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		tbl.Insert(key, []byte(fmt.Sprintf("test-value-%d", i)))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			tbl.Get(key)
			counter++
		}
	})
}

func benchmarkNext(b *testing.B, tbl service.ITable) {
	b.Cleanup(func() {
		tbl.Close()
	})

	requireFeature(b, tbl, service.FeatureInsert)
	requireFeature(b, tbl, service.FeatureCursor)

	numKeys := 10_000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		tbl.Insert(key, []byte("v"))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			tbl.Next(key)
			counter++
		}
	})
}

func benchmarkTake(b *testing.B, tbl service.ITable) {
	b.Cleanup(func() {
		tbl.Close()
	})

	requireFeature(b, tbl, service.FeatureInsert)
	requireFeature(b, tbl, service.FeatureTake)

	numKeys := 100_000
	if b.N < numKeys {
		numKeys = b.N
	}

	keys := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = fmt.Sprintf("test-key-%d", i)
		tbl.Insert(keys[i], []byte(fmt.Sprintf("test-value-%d", i)))
	}

	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1)-1) % numKeys
			tbl.Take(keys[idx])
		}
	})
}

// Sequential: a reap sweeps the whole table, parallel runs would just
// serialize on the table lock.
func benchmarkReap(b *testing.B, tbl service.ITable) {
	b.Cleanup(func() {
		tbl.Close()
	})

	requireFeature(b, tbl, service.FeatureInsertTTL)
	requireFeature(b, tbl, service.FeatureReap)

	numKeys := 10_000

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		for j := 0; j < numKeys; j++ {
			ttl := uint64(0)
			if j%2 == 0 {
				ttl = 1
			}
			tbl.InsertTTL(fmt.Sprintf("reap-key-%d", j), []byte("v"), ttl)
		}
		b.StartTimer()

		tbl.Reap()
	}
}

func benchmarkMixedUsage(b *testing.B, tbl service.ITable) {
	b.Cleanup(func() {
		tbl.Close()
	})

	requireFeature(b, tbl, service.FeatureInsert)
	requireFeature(b, tbl, service.FeatureGet)
	requireFeature(b, tbl, service.FeatureRemove)
	requireFeature(b, tbl, service.FeatureCursor)

	numKeys := 100_000
	if b.N < numKeys {
		numKeys = b.N
	}

	keys := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = fmt.Sprintf("test-key-%d", i)
		tbl.Insert(keys[i], []byte(fmt.Sprintf("test-value-%d", i)))
	}

	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		localCounter := 0

		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1)-1) % numKeys

			var key string
			if localCounter%10 == 0 {
				key = fmt.Sprintf("new-key-%d", localCounter)
			} else {
				key = keys[idx]
			}

			switch localCounter % 5 {
			case 0, 1:
				tbl.Get(key)
			case 2:
				tbl.Insert(key, []byte(fmt.Sprintf("mixed-value-%d", localCounter)))
			case 3:
				tbl.Next(key)
			case 4:
				tbl.Remove(key)
			}

			localCounter++
		}
	})
}
