package dict

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/lib/dict"
	"github.com/ValentinKolb/dDict/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dDict clusters",
		Long:    "Runs set, get, has, delete and mixed workloads with one client per thread and reports throughput and latency percentiles",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)

	// one client per thread, handed out round robin
	perfClients []*dict.DistributedDict
	perfNext    atomic.Uint32

	perfRegistry = gometrics.NewRegistry()
	perfContext  = context.Background()
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads (and clients) to use for the benchmark"))
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

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	perfContext = cmd.Context()

	// Create the clients
	perfClients = []*dict.DistributedDict{distDict}
	for len(perfClients) < perfNumThreads {
		d, err := util.NewDict(cmd.Context())
		if err != nil {
			return err
		}
		perfClients = append(perfClients, d)
	}
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for dDict clusters")

	config, err := util.GetClientConfig()
	if err != nil {
		return err
	}

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Refresh Policy: %s\n", distDict.Policy().Name())
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)
	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)

	benchmarks := []struct {
		name    string
		prepare bool
		op      func(d *dict.DistributedDict, key string, i int) error
	}{
		{"set", false, func(d *dict.DistributedDict, key string, _ int) error {
			return appendErr(d.Set(perfContext, key, "test"))
		}},
		{"set-large", false, func(d *dict.DistributedDict, key string, _ int) error {
			return appendErr(d.Set(perfContext, key, largeValue))
		}},
		{"get", true, func(d *dict.DistributedDict, key string, _ int) error {
			_, err := d.Get(perfContext, key)
			return err
		}},
		{"has", true, func(d *dict.DistributedDict, key string, _ int) error {
			_, err := d.Has(perfContext, key)
			return err
		}},
		{"delete", true, func(d *dict.DistributedDict, key string, _ int) error {
			// deleted keys are expected to be missing on later iterations
			res, err := d.Delete(perfContext, key)
			if err != nil && !isNotFound(err) {
				return err
			}
			if err == nil {
				return appendErr(res)
			}
			return nil
		}},
		{"mixed", true, func(d *dict.DistributedDict, key string, i int) error {
			var err error
			switch i % 4 {
			case 0: // set
				err = appendErr(d.Set(perfContext, key, "test"))
			case 1: // get
				_, err = d.Get(perfContext, key)
			case 2: // delete
				_, err = d.Delete(perfContext, key)
			case 3: // has
				_, err = d.Has(perfContext, key)
			}
			if isNotFound(err) {
				return nil
			}
			return err
		}},
	}

	for _, bm := range benchmarks {
		timer := gometrics.GetOrRegisterTimer(bm.name, perfRegistry)
		errCount := gometrics.GetOrRegisterCounter(bm.name+".errors", perfRegistry)

		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bm.name) {
				return
			}

			getKey, iter := getKeys(bm.name)

			// set keys
			if bm.prepare {
				iter(func(k string) {
					if err := appendErr(distDict.Set(perfContext, k, "test")); err != nil {
						log.Printf("(%s) - error setting key: %v\n", bm.name, err)
					}
				})
			}

			// cleanup
			b.Cleanup(func() {
				iter(func(k string) {
					if _, err := distDict.Delete(perfContext, k); err != nil && !isNotFound(err) {
						log.Printf("(%s) - error deleting key: %v\n", bm.name, err)
					}
				})
			})

			b.SetParallelism(perfNumThreads)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				d := nextClient()
				counter := 0
				for pb.Next() {
					start := time.Now()
					err := bm.op(d, getKey(counter), counter)
					timer.UpdateSince(start)
					if err != nil {
						errCount.Inc(1)
						log.Printf("(%s) - error: %v\n", bm.name, err)
					}
					counter++
				}
			})
		})

		results[bm.name] = result
		printResult(bm.name, result, timer.Snapshot(), errCount.Count())
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
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
	return slices.Contains(perfSkip, test)
}

func nextClient() *dict.DistributedDict {
	return perfClients[int(perfNext.Add(1)-1)%len(perfClients)]
}

func appendErr(res common.AppendResult) error {
	if res.Success {
		return nil
	}
	return fmt.Errorf("append not committed after %d attempts (last error: %v)", res.Attempts, res.LastErr)
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrKeyNotFound)
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

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult, latency gometrics.Timer, errCount int64) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-12sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	ps := latency.Percentiles([]float64{0.5, 0.99})
	fmt.Printf("%-12s%.0fns/op (%s/op)\t%.0f ops/sec\tp50 %s\tp99 %s\terrors %d\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(ps[0]), time.Duration(ps[1]), errCount)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Ns", "P99Ns", "Errors", "Skipped",
		"Seed", "TimeoutSec", "AppendAttempts", "RefreshPolicy",
		"Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp, opsPerSec float64
		skipped := "true"

		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		latency := gometrics.GetOrRegisterTimer(test, perfRegistry).Snapshot()
		ps := latency.Percentiles([]float64{0.5, 0.99})

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			strconv.FormatInt(gometrics.GetOrRegisterCounter(test+".errors", perfRegistry).Count(), 10),
			skipped,
			config.Seed.String(),
			strconv.Itoa(config.Timeout()),
			strconv.Itoa(config.Attempts()),
			distDict.Policy().Name(),
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
