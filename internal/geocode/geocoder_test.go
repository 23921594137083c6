package geocode

import (
	"context"
	"errors"
	"testing"

	"climate-stats/internal/models"
)

// stubProvider counts calls and returns a fixed result or error.
type stubProvider struct {
	lat, lon float64
	err      error
	calls    int
}

func (p *stubProvider) Geocode(ctx context.Context, address string) (float64, float64, error) {
	p.calls++
	if p.err != nil {
		return 0, 0, p.err
	}
	return p.lat, p.lon, nil
}

// stubCache is an in-memory CacheStore with injectable failures.
type stubCache struct {
	entries     map[string]models.GeocodeEntry
	lookupErr   error
	storeErr    error
	storeCalls  int
	lookupCalls int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]models.GeocodeEntry)}
}

func (c *stubCache) Lookup(ctx context.Context, address string) (models.GeocodeEntry, bool, error) {
	c.lookupCalls++
	if c.lookupErr != nil {
		return models.GeocodeEntry{}, false, c.lookupErr
	}
	entry, ok := c.entries[address]
	return entry, ok, nil
}

func (c *stubCache) Store(ctx context.Context, address string, latitude, longitude float64) error {
	c.storeCalls++
	if c.storeErr != nil {
		return c.storeErr
	}
	c.entries[address] = models.GeocodeEntry{Address: address, Latitude: latitude, Longitude: longitude}
	return nil
}

func TestGeocoder_CacheHitSkipsProvider(t *testing.T) {
	ctx := context.Background()

	cache := newStubCache()
	cache.entries["Fredericton, NB"] = models.GeocodeEntry{
		Address:   "Fredericton, NB",
		Latitude:  45.966,
		Longitude: -66.646,
	}
	provider := &stubProvider{lat: 99.0, lon: 99.0}

	g := NewGeocoder(cache, provider, testLogger(), testMetrics)

	entry, err := g.Geocode(ctx, "Fredericton, NB")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if entry.Latitude != 45.966 || entry.Longitude != -66.646 {
		t.Errorf("Geocode = (%v, %v), want cached (45.966, -66.646)", entry.Latitude, entry.Longitude)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0 on cache hit", provider.calls)
	}
}

func TestGeocoder_MissConsultsProviderAndCaches(t *testing.T) {
	ctx := context.Background()

	cache := newStubCache()
	provider := &stubProvider{lat: 29.76, lon: -95.37}

	g := NewGeocoder(cache, provider, testLogger(), testMetrics)

	entry, err := g.Geocode(ctx, "Houston, TX")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if entry.Latitude != 29.76 || entry.Longitude != -95.37 {
		t.Errorf("Geocode = (%v, %v), want (29.76, -95.37)", entry.Latitude, entry.Longitude)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}

	cached, ok := cache.entries["Houston, TX"]
	if !ok {
		t.Fatal("successful resolution was not written back to the cache")
	}
	if cached.Latitude != 29.76 || cached.Longitude != -95.37 {
		t.Errorf("cached entry = (%v, %v), want (29.76, -95.37)", cached.Latitude, cached.Longitude)
	}

	// Second resolution is a hit: still exactly one provider call.
	if _, err := g.Geocode(ctx, "Houston, TX"); err != nil {
		t.Fatalf("second Geocode: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls after hit = %d, want 1", provider.calls)
	}
}

func TestGeocoder_ProviderNoMatch(t *testing.T) {
	ctx := context.Background()

	g := NewGeocoder(newStubCache(), &stubProvider{err: ErrNoMatch}, testLogger(), testMetrics)

	_, err := g.Geocode(ctx, "Nowhereville, ZZ")
	if !models.IsNotFound(err) {
		t.Fatalf("Geocode error = %v, want NotFoundError", err)
	}

	var notFound *models.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatal("error is not a *models.NotFoundError")
	}
	if notFound.ID != "Nowhereville, ZZ" {
		t.Errorf("NotFoundError.ID = %q, want original address", notFound.ID)
	}
}

func TestGeocoder_NilProviderCapabilityUnavailable(t *testing.T) {
	ctx := context.Background()

	g := NewGeocoder(newStubCache(), nil, testLogger(), testMetrics)

	_, err := g.Geocode(ctx, "Houston, TX")
	if !models.IsCapabilityUnavailable(err) {
		t.Fatalf("Geocode error = %v, want CapabilityError", err)
	}
}

func TestGeocoder_UnreadableCacheDegradesToMiss(t *testing.T) {
	ctx := context.Background()

	cache := newStubCache()
	cache.lookupErr = &models.StoreError{Op: "read", Err: errors.New("disk gone")}
	provider := &stubProvider{lat: 29.76, lon: -95.37}

	g := NewGeocoder(cache, provider, testLogger(), testMetrics)

	entry, err := g.Geocode(ctx, "Houston, TX")
	if err != nil {
		t.Fatalf("Geocode with broken cache: %v, want success via provider", err)
	}
	if entry.Latitude != 29.76 || entry.Longitude != -95.37 {
		t.Errorf("Geocode = (%v, %v), want provider result", entry.Latitude, entry.Longitude)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
	if cache.storeCalls != 0 {
		t.Errorf("store calls = %d, want 0: write-back is skipped when the read failed", cache.storeCalls)
	}
}

func TestGeocoder_CacheWriteFailureSwallowed(t *testing.T) {
	ctx := context.Background()

	cache := newStubCache()
	cache.storeErr = &models.StoreError{Op: "write", Err: errors.New("disk full")}
	provider := &stubProvider{lat: 29.76, lon: -95.37}

	g := NewGeocoder(cache, provider, testLogger(), testMetrics)

	entry, err := g.Geocode(ctx, "Houston, TX")
	if err != nil {
		t.Fatalf("Geocode with failing cache write: %v, want success", err)
	}
	if entry.Latitude != 29.76 || entry.Longitude != -95.37 {
		t.Errorf("Geocode = (%v, %v), want provider result", entry.Latitude, entry.Longitude)
	}
	if cache.storeCalls != 1 {
		t.Errorf("store calls = %d, want 1 attempted best-effort write", cache.storeCalls)
	}
}

func TestGeocoder_NilCacheStillResolves(t *testing.T) {
	ctx := context.Background()

	provider := &stubProvider{lat: 45.966, lon: -66.646}
	g := NewGeocoder(nil, provider, testLogger(), testMetrics)

	entry, err := g.Geocode(ctx, "Fredericton, NB")
	if err != nil {
		t.Fatalf("Geocode without cache: %v", err)
	}
	if entry.Latitude != 45.966 || entry.Longitude != -66.646 {
		t.Errorf("Geocode = (%v, %v), want provider result", entry.Latitude, entry.Longitude)
	}
}

func TestGeocoder_DurableCacheEndToEnd(t *testing.T) {
	ctx := context.Background()

	cache := openTestCache(t)
	if err := cache.Store(ctx, "Fredericton, NB", 45.966, -66.646); err != nil {
		t.Fatalf("Store: %v", err)
	}

	provider := &stubProvider{lat: 0, lon: 0}
	g := NewGeocoder(cache, provider, testLogger(), testMetrics)

	entry, err := g.Geocode(ctx, "Fredericton, NB")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if entry.Latitude != 45.966 || entry.Longitude != -66.646 {
		t.Errorf("Geocode = (%v, %v), want (45.966, -66.646)", entry.Latitude, entry.Longitude)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0 for a pre-populated cache", provider.calls)
	}
}
