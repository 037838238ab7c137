package benchmark

import (
	"context"
	"crypto/rand"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/memkv/internal/server/redisserver"
	"github.com/yndnr/memkv/internal/storage/memory"
	"github.com/yndnr/memkv/internal/telemetry/logger"
)

// KeyCounts defines the store sizes for benchmarking.
var KeyCounts = []int{5000, 10000, 50000, 100000, 500000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 5000, 10000}

// ValueSizes defines the payload sizes in bytes.
var ValueSizes = []int{16, 256, 4096}

// newKey generates a unique key.
func newKey() string {
	return "key:" + ulid.Make().String()
}

// newValue generates a random binary value of the given size.
func newValue(size int) []byte {
	v := make([]byte, size)
	_, _ = rand.Read(v)
	return v
}

// prefillStore prefills a store with count keys and returns them.
func prefillStore(b *testing.B, store *memory.Store, count, valueSize int) []string {
	b.Helper()
	keys := make([]string, count)
	for i := range keys {
		keys[i] = newKey()
		if err := store.Set(keys[i], newValue(valueSize)); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}
	return keys
}

// startServer runs a RESP server on a loopback port for the benchmark.
func startServer(b *testing.B, store *memory.Store) string {
	b.Helper()
	cfg := redisserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"

	srv := redisserver.New(cfg, store, redisserver.WithLogger(logger.Discard()))
	if err := srv.Start(context.Background()); err != nil {
		b.Fatalf("Start failed: %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various store sizes.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
