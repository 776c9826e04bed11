package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ventia/ventia/internal/sales"
)

type fakeStatsReader struct {
	mu    sync.Mutex
	calls int
	stats map[string]sales.TenantStats
	err   error
}

func (f *fakeStatsReader) ReadTenantStats(_ context.Context, tenantID string, _ int) (sales.TenantStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return sales.TenantStats{}, f.err
	}
	return f.stats[tenantID], nil
}

func (f *fakeStatsReader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStatsCacheRefreshesLazily(t *testing.T) {
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{
		"tenant-1": {SalesRows: 10, TopResellers: []string{"Galilu"}},
	}}
	cache := NewStatsCache(reader, 5*time.Minute, 5)

	current := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return current }

	first, err := cache.Get(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first.SalesRows != 10 {
		t.Fatalf("SalesRows = %d", first.SalesRows)
	}
	if reader.callCount() != 1 {
		t.Fatalf("reader calls = %d", reader.callCount())
	}

	// Inside the TTL the cached entry is served.
	current = current.Add(4 * time.Minute)
	if _, err := cache.Get(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if reader.callCount() != 1 {
		t.Fatalf("reader calls = %d, want 1", reader.callCount())
	}

	// Past the TTL a blocking refresh happens.
	current = current.Add(2 * time.Minute)
	if _, err := cache.Get(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if reader.callCount() != 2 {
		t.Fatalf("reader calls = %d, want 2", reader.callCount())
	}
}

func TestStatsCacheIsTenantKeyed(t *testing.T) {
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{
		"tenant-a": {SalesRows: 1, TopResellers: []string{"Galilu"}},
		"tenant-b": {SalesRows: 2, TopResellers: []string{"BoxNox"}},
	}}
	cache := NewStatsCache(reader, 5*time.Minute, 5)

	statsA, err := cache.Get(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("Get(a) error = %v", err)
	}
	statsB, err := cache.Get(context.Background(), "tenant-b")
	if err != nil {
		t.Fatalf("Get(b) error = %v", err)
	}
	if statsA.TopResellers[0] == statsB.TopResellers[0] {
		t.Fatal("tenant entries must not leak across tenants")
	}
	if statsA.TenantID != "tenant-a" || statsB.TenantID != "tenant-b" {
		t.Fatalf("tenant ids = %q / %q", statsA.TenantID, statsB.TenantID)
	}
}

func TestStatsCachePropagatesRefreshFailure(t *testing.T) {
	reader := &fakeStatsReader{err: errors.New("store unavailable")}
	cache := NewStatsCache(reader, 5*time.Minute, 5)

	if _, err := cache.Get(context.Background(), "tenant-1"); err == nil {
		t.Fatal("expected refresh error")
	}
}

func TestStatsCacheConcurrentAccess(t *testing.T) {
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{"tenant-1": {SalesRows: 10}}}
	cache := NewStatsCache(reader, time.Nanosecond, 5)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background(), "tenant-1"); err != nil {
				t.Errorf("Get() error = %v", err)
			}
		}()
	}
	wg.Wait()
}
