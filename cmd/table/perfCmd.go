package table

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okvlab/okv/cmd/util"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for okv servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfNumOps           = 10000
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. insert,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("How large the value for the insert-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("How many operations to perform per benchmark"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfNumOps = viper.GetInt("ops")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for okv servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Operations: %d\n", perfNumOps)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]metrics.Timer)

	// --------------------------------------------------------------------------
	// insert
	// --------------------------------------------------------------------------

	results["insert"] = runTimed("insert", func(getKey func(int) string, counter int) error {
		return rpcTable.Insert(getKey(counter), []byte("test"))
	}, nil)

	// --------------------------------------------------------------------------
	// insert-large
	// --------------------------------------------------------------------------

	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	results["insert-large"] = runTimed("insert-large", func(getKey func(int) string, counter int) error {
		return rpcTable.Insert(getKey(counter), largeValue)
	}, nil)

	// --------------------------------------------------------------------------
	// get
	// --------------------------------------------------------------------------

	results["get"] = runTimed("get", func(getKey func(int) string, counter int) error {
		_, _, err := rpcTable.Get(getKey(counter))
		return err
	}, func(iter func(func(string))) {
		iter(func(k string) {
			if err := rpcTable.Insert(k, []byte("test")); err != nil {
				log.Printf("(get) - error inserting key: %v\n", err)
			}
		})
	})

	// --------------------------------------------------------------------------
	// has
	// --------------------------------------------------------------------------

	results["has"] = runTimed("has", func(getKey func(int) string, counter int) error {
		_, err := rpcTable.Has(getKey(counter))
		return err
	}, func(iter func(func(string))) {
		iter(func(k string) {
			if err := rpcTable.Insert(k, []byte("test")); err != nil {
				log.Printf("(has) - error inserting key: %v\n", err)
			}
		})
	})

	// --------------------------------------------------------------------------
	// take (each op inserts a fresh key outside the timer, then takes it)
	// --------------------------------------------------------------------------

	results["take"] = runTimedWithSetup("take", func(getKey func(int) string, counter int) (func() error, error) {
		key := fmt.Sprintf("%s-take-%d", perfKeyPrefix, counter)
		if err := rpcTable.Insert(key, []byte("test")); err != nil {
			return nil, err
		}
		return func() error {
			_, _, err := rpcTable.Take(key)
			return err
		}, nil
	})

	// --------------------------------------------------------------------------
	// scan (pages of 10 starting after a rotating key)
	// --------------------------------------------------------------------------

	results["scan"] = runTimed("scan", func(getKey func(int) string, counter int) error {
		_, _, err := rpcTable.Scan(getKey(counter), 10)
		return err
	}, func(iter func(func(string))) {
		iter(func(k string) {
			if err := rpcTable.Insert(k, []byte("test")); err != nil {
				log.Printf("(scan) - error inserting key: %v\n", err)
			}
		})
	})

	// --------------------------------------------------------------------------
	// mixed (rotating insert/get/has/remove)
	// --------------------------------------------------------------------------

	results["mixed"] = runTimed("mixed", func(getKey func(int) string, counter int) error {
		key := getKey(counter)
		switch counter % 4 {
		case 0:
			return rpcTable.Insert(key, []byte("test"))
		case 1:
			_, _, err := rpcTable.Get(key)
			return err
		case 2:
			_, err := rpcTable.Has(key)
			return err
		default:
			return rpcTable.Remove(key)
		}
	}, nil)

	// print results
	fmt.Println()
	for _, test := range []string{"insert", "insert-large", "get", "has", "take", "scan", "mixed"} {
		printResult(test, results[test])
	}

	// cleanup all test keys
	cleanupTestKeys()

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// runTimed runs perfNumOps invocations of op across perfNumThreads workers
// and records each latency in a timer. The optional setup runs once before
// the workers start and is not timed.
func runTimed(test string, op func(getKey func(int) string, counter int) error, setup func(iter func(func(string)))) metrics.Timer {
	timer := metrics.NewTimer()
	if shouldSkip(test) {
		return timer
	}

	getKey, iter := getKeys(test)

	if setup != nil {
		setup(iter)
	}

	runWorkers(test, func(counter int) error {
		start := time.Now()
		err := op(getKey, counter)
		timer.UpdateSince(start)
		return err
	})

	// remove the keys this test created
	iter(func(k string) {
		if err := rpcTable.Remove(k); err != nil {
			log.Printf("(%s) - error removing key: %v\n", test, err)
		}
	})

	return timer
}

// runTimedWithSetup is like runTimed but lets every operation run untimed
// per-op setup first. op returns the timed closure.
func runTimedWithSetup(test string, op func(getKey func(int) string, counter int) (func() error, error)) metrics.Timer {
	timer := metrics.NewTimer()
	if shouldSkip(test) {
		return timer
	}

	getKey, _ := getKeys(test)

	runWorkers(test, func(counter int) error {
		timed, err := op(getKey, counter)
		if err != nil {
			return err
		}
		start := time.Now()
		err = timed()
		timer.UpdateSince(start)
		return err
	})

	return timer
}

// runWorkers distributes perfNumOps invocations of fn over perfNumThreads
// goroutines. Each invocation gets a globally unique counter value.
func runWorkers(test string, fn func(counter int) error) {
	var wg sync.WaitGroup
	opsPerThread := perfNumOps / perfNumThreads

	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			for i := 0; i < opsPerThread; i++ {
				counter := thread*opsPerThread + i
				if err := fn(counter); err != nil {
					log.Printf("(%s) - operation error: %v\n", test, err)
				}
			}
		}(t)
	}

	wg.Wait()
}

// cleanupTestKeys removes keys left behind by per-op setups (e.g. take keys
// that errored before being taken).
func cleanupTestKeys() {
	for i := 0; i < perfNumOps; i++ {
		key := fmt.Sprintf("%s-take-%d", perfKeyPrefix, i)
		_ = rpcTable.Remove(key)
	}
}

// printResult prints the recorded latencies of a benchmark in a formatted way
func printResult(test string, timer metrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	opsPerSec := float64(0)
	if timer.Mean() > 0 {
		opsPerSec = 1e9 / timer.Mean()
	}

	// Print the formatted result
	fmt.Printf("%-20s%s/op\tp50=%s p95=%s p99=%s\t%.0f ops/sec\n",
		test,
		time.Duration(int64(timer.Mean())),
		time.Duration(int64(ps[0])),
		time.Duration(int64(ps[1])),
		time.Duration(int64(ps[2])),
		opsPerSec,
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]metrics.Timer) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, timer := range results {
		var opsPerSec float64
		skipped := "false"

		if timer.Count() == 0 {
			skipped = "true"
		} else if timer.Mean() > 0 {
			opsPerSec = 1e9 / timer.Mean()
		}

		ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})

		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			fmt.Sprintf("%.0f", timer.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
