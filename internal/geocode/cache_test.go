package geocode

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"climate-stats/pkg/logging"
	"climate-stats/pkg/metrics"
)

// Shared across the package's tests: promauto meters register globally, so
// the collector is created once per test process.
var testMetrics = metrics.NewCollector("geocode_test")

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("geocode-test", "0.0.0", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "geocode_cache.sqlite3"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	t.Cleanup(func() {
		if err := cache.Close(); err != nil {
			t.Errorf("close cache: %v", err)
		}
	})
	return cache
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)

	if err := cache.Store(ctx, "Houston, TX", 29.76, -95.37); err != nil {
		t.Fatalf("Store: %v", err)
	}

	entry, found, err := cache.Lookup(ctx, "Houston, TX")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatal("Lookup: stored address not found")
	}
	if entry.Latitude != 29.76 || entry.Longitude != -95.37 {
		t.Errorf("Lookup = (%v, %v), want (29.76, -95.37) exactly", entry.Latitude, entry.Longitude)
	}
}

func TestCache_MissOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)

	_, found, err := cache.Lookup(ctx, "Unknown City")
	if err != nil {
		t.Fatalf("Lookup on empty store: %v, want miss without error", err)
	}
	if found {
		t.Error("Lookup on empty store: found = true, want false")
	}
}

func TestCache_ExactKeyMatch(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)

	if err := cache.Store(ctx, "Houston, TX", 29.76, -95.37); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Keys are compared as given: no case folding, no trimming.
	for _, variant := range []string{"houston, tx", "Houston, TX ", " Houston, TX", "Houston,TX"} {
		_, found, err := cache.Lookup(ctx, variant)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", variant, err)
		}
		if found {
			t.Errorf("Lookup(%q) found = true, want miss for non-exact key", variant)
		}
	}
}

func TestCache_OverwriteLastWriteWins(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)

	if err := cache.Store(ctx, "Fredericton, NB", 1.0, 2.0); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	if err := cache.Store(ctx, "Fredericton, NB", 45.966, -66.646); err != nil {
		t.Fatalf("second Store: %v", err)
	}

	entry, found, err := cache.Lookup(ctx, "Fredericton, NB")
	if err != nil || !found {
		t.Fatalf("Lookup: found=%v err=%v", found, err)
	}
	if entry.Latitude != 45.966 || entry.Longitude != -66.646 {
		t.Errorf("Lookup = (%v, %v), want latest write (45.966, -66.646)", entry.Latitude, entry.Longitude)
	}

	size, err := cache.Size(ctx)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 1 {
		t.Errorf("Size = %d, want 1 unique address regardless of write count", size)
	}
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)

	if err := cache.Store(ctx, "Houston, TX", 29.76, -95.37); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := cache.Store(ctx, "Fredericton, NB", 45.966, -66.646); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	size, err := cache.Size(ctx)
	if err != nil {
		t.Fatalf("Size after Clear: %v", err)
	}
	if size != 0 {
		t.Errorf("Size after Clear = %d, want 0", size)
	}

	// Store stays open and usable.
	if err := cache.Store(ctx, "Houston, TX", 29.76, -95.37); err != nil {
		t.Fatalf("Store after Clear: %v", err)
	}
	_, found, err := cache.Lookup(ctx, "Houston, TX")
	if err != nil || !found {
		t.Errorf("Lookup after Clear+Store: found=%v err=%v, want hit", found, err)
	}
}

func TestCache_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "geocode_cache.sqlite3")

	cache, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if err := cache.Store(ctx, "Houston, TX", 29.76, -95.37); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache after close: %v", err)
	}
	defer reopened.Close()

	entry, found, err := reopened.Lookup(ctx, "Houston, TX")
	if err != nil || !found {
		t.Fatalf("Lookup after reopen: found=%v err=%v", found, err)
	}
	if entry.Latitude != 29.76 || entry.Longitude != -95.37 {
		t.Errorf("Lookup after reopen = (%v, %v), want (29.76, -95.37)", entry.Latitude, entry.Longitude)
	}
}
