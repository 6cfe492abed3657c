package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/maxstore/cmd/util"
	"github.com/ValentinKolb/maxstore/lib/store"
	"github.com/google/uuid"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for maxstore mediums and stores",
		Long:    "Runs parallel benchmarks against the raw medium and sequential benchmarks against the store. All keys carry a run-unique prefix and are removed afterwards.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,store-get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines for the medium benchmarks"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	perfKeyPrefix = "__perf-" + uuid.NewString()[:8]

	return nil
}

// perfResult is the outcome of one benchmark
type perfResult struct {
	bench testing.BenchmarkResult
	timer gometrics.Timer
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for maxstore")
	fmt.Println()
	fmt.Printf("Medium:    %s\n", viper.GetString("medium"))
	fmt.Printf("Namespace: %s\n", kvStore.Namespace())
	fmt.Printf("Threads:   %d\n", perfNumThreads)
	fmt.Printf("Prefix:    %s\n", perfKeyPrefix)
	fmt.Println()

	registry := gometrics.NewRegistry()
	results := make(map[string]perfResult)

	record := func(name string, bench func(b *testing.B, timer gometrics.Timer)) {
		if shouldSkip(name) {
			fmt.Printf("%-14sskipped\n", name)
			return
		}
		timer := gometrics.GetOrRegisterTimer(name, registry)
		res := testing.Benchmark(func(b *testing.B) { bench(b, timer) })
		results[name] = perfResult{bench: res, timer: timer}
		printResult(name, results[name])
	}

	value := "test"
	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)

	// Raw medium, parallel

	record("set", func(b *testing.B, timer gometrics.Timer) {
		getKey, iter := getKeys("set")
		b.Cleanup(func() { iter(removeMediumKey("set")) })
		runParallel(b, func(counter int) error {
			defer timer.UpdateSince(time.Now())
			return kvMedium.Set(getKey(counter), value)
		})
	})

	record("set-large", func(b *testing.B, timer gometrics.Timer) {
		getKey, iter := getKeys("set-large")
		b.Cleanup(func() { iter(removeMediumKey("set-large")) })
		runParallel(b, func(counter int) error {
			defer timer.UpdateSince(time.Now())
			return kvMedium.Set(getKey(counter), largeValue)
		})
	})

	record("get", func(b *testing.B, timer gometrics.Timer) {
		getKey, iter := getKeys("get")
		iter(func(k string) {
			if err := kvMedium.Set(k, value); err != nil {
				log.Printf("(get) - error setting key: %v\n", err)
			}
		})
		b.Cleanup(func() { iter(removeMediumKey("get")) })
		runParallel(b, func(counter int) error {
			defer timer.UpdateSince(time.Now())
			_, _, err := kvMedium.Get(getKey(counter))
			return err
		})
	})

	record("remove", func(b *testing.B, timer gometrics.Timer) {
		getKey, iter := getKeys("remove")
		iter(func(k string) {
			if err := kvMedium.Set(k, value); err != nil {
				log.Printf("(remove) - error setting key: %v\n", err)
			}
		})
		b.Cleanup(func() { iter(removeMediumKey("remove")) })
		runParallel(b, func(counter int) error {
			defer timer.UpdateSince(time.Now())
			return kvMedium.Remove(getKey(counter))
		})
	})

	// Store, sequential (a store is not safe for concurrent use)

	record("store-set", func(b *testing.B, timer gometrics.Timer) {
		getKey, iter := getKeys("store-set")
		b.Cleanup(func() { iter(removeStoreKey("store-set")) })
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			start := time.Now()
			if _, err := kvStore.SetItem(store.Item{Key: getKey(i), Value: value, Expire: time.Hour}); err != nil {
				log.Printf("(store-set) - error setting key: %v\n", err)
			}
			timer.UpdateSince(start)
		}
	})

	record("store-get", func(b *testing.B, timer gometrics.Timer) {
		getKey, iter := getKeys("store-get")
		iter(func(k string) {
			if _, err := kvStore.SetItem(store.Item{Key: k, Value: value}); err != nil {
				log.Printf("(store-get) - error setting key: %v\n", err)
			}
		})
		b.Cleanup(func() { iter(removeStoreKey("store-get")) })
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			start := time.Now()
			if _, _, err := kvStore.GetItem(getKey(i)); err != nil {
				log.Printf("(store-get) - error getting key: %v\n", err)
			}
			timer.UpdateSince(start)
		}
	})

	record("store-keys", func(b *testing.B, timer gometrics.Timer) {
		_, iter := getKeys("store-keys")
		iter(func(k string) {
			if _, err := kvStore.SetItem(store.Item{Key: k, Value: value}); err != nil {
				log.Printf("(store-keys) - error setting key: %v\n", err)
			}
		})
		b.Cleanup(func() { iter(removeStoreKey("store-keys")) })
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			start := time.Now()
			if _, err := kvStore.Keys(); err != nil {
				log.Printf("(store-keys) - error listing keys: %v\n", err)
			}
			timer.UpdateSince(start)
		}
	})

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
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// runParallel runs op on perfNumThreads goroutines and logs its errors
func runParallel(b *testing.B, op func(counter int) error) {
	b.SetParallelism(perfNumThreads)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			if err := op(counter); err != nil {
				log.Printf("error: %v\n", err)
			}
			counter++
		}
	})
}

func removeMediumKey(test string) func(string) {
	return func(k string) {
		if err := kvMedium.Remove(k); err != nil {
			log.Printf("(%s) - error removing key: %v\n", test, err)
		}
	}
}

func removeStoreKey(test string) func(string) {
	return func(k string) {
		if _, err := kvStore.RemoveItem(k, nil); err != nil {
			log.Printf("(%s) - error removing key: %v\n", test, err)
		}
	}
}

// getKeys creates the test keys of one benchmark and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// opsPerSec derives throughput from a benchmark result
func opsPerSec(result testing.BenchmarkResult) float64 {
	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	return 1.0 / (nsPerOp / 1e9)
}

// printResult prints throughput and the latency distribution of one benchmark
func printResult(test string, r perfResult) {
	snap := r.timer.Snapshot()
	fmt.Printf("%-14s%10.0f ops/sec   mean %-10s p50 %-10s p99 %-10s max %s\n",
		test,
		opsPerSec(r.bench),
		time.Duration(snap.Mean()),
		time.Duration(snap.Percentile(0.5)),
		time.Duration(snap.Percentile(0.99)),
		time.Duration(snap.Max()),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "OpsPerSec", "Samples", "MeanNs", "P50Ns", "P99Ns", "MaxNs",
		"Medium", "Namespace", "Transport", "Serializer", "Threads", "LargeValueSizeKB", "KeysCount",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, test := range sortedKeys(results) {
		r := results[test]
		snap := r.timer.Snapshot()
		row := []string{
			test,
			strconv.FormatInt(r.bench.NsPerOp(), 10),
			fmt.Sprintf("%.0f", opsPerSec(r.bench)),
			strconv.FormatInt(snap.Count(), 10),
			fmt.Sprintf("%.0f", snap.Mean()),
			fmt.Sprintf("%.0f", snap.Percentile(0.5)),
			fmt.Sprintf("%.0f", snap.Percentile(0.99)),
			strconv.FormatInt(snap.Max(), 10),
			viper.GetString("medium"),
			kvStore.Namespace(),
			viper.GetString("transport"),
			viper.GetString("serializer"),
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
