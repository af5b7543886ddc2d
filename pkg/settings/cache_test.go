package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gridtime/gridtime/pkg/store"
)

// countingStore wraps a store and counts range reads.
type countingStore struct {
	store.Store
	mu    sync.Mutex
	reads int
}

func (c *countingStore) ReadRange(ctx context.Context, docID, segment, rng string) ([][]string, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.Store.ReadRange(ctx, docID, segment, rng)
}

func (c *countingStore) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache(t *testing.T) (*Cache, *countingStore, *fakeClock) {
	t.Helper()
	cs := &countingStore{Store: store.NewMemoryStore()}
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	c := NewCache(cs, DefaultTTL)
	c.SetClock(clock.Now)
	return c, cs, clock
}

func TestGetProvisionsDefaultsWhenAbsent(t *testing.T) {
	c, cs, _ := newTestCache(t)
	ctx := context.Background()

	cfg, err := c.Get(ctx, "doc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cfg[KeyHourlyRate] != "100" || cfg[KeyTimezone] != "UTC" {
		t.Errorf("unexpected defaults: %v", cfg)
	}

	// The provisioned segment must be durably written, not just cached.
	rows, err := cs.Store.ReadRange(ctx, "doc", SegmentName, "A1:B2")
	if err != nil {
		t.Fatalf("config segment not written: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != KeyHourlyRate || rows[1][1] != "UTC" {
		t.Errorf("unexpected seeded rows: %v", rows)
	}
}

func TestGetCachesWithinTTL(t *testing.T) {
	c, cs, clock := newTestCache(t)
	ctx := context.Background()

	first, err := c.Get(ctx, "doc")
	if err != nil {
		t.Fatal(err)
	}
	reads := cs.readCount()

	clock.Advance(DefaultTTL - time.Second)
	second, err := c.Get(ctx, "doc")
	if err != nil {
		t.Fatal(err)
	}

	if cs.readCount() != reads {
		t.Errorf("expected no store read within TTL, got %d extra", cs.readCount()-reads)
	}
	// Identical snapshot, not a copy: a write through one name must be
	// visible through the other.
	first["__probe"] = "1"
	if second["__probe"] != "1" {
		t.Error("expected the identical cached snapshot within TTL")
	}
	delete(first, "__probe")
}

func TestGetRefreshesAfterTTL(t *testing.T) {
	c, cs, clock := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "doc"); err != nil {
		t.Fatal(err)
	}

	// Change the stored rate behind the cache's back.
	if err := cs.Store.UpdateCell(ctx, "doc", SegmentName, "B1", "150"); err != nil {
		t.Fatal(err)
	}

	clock.Advance(DefaultTTL + time.Second)
	cfg, err := c.Get(ctx, "doc")
	if err != nil {
		t.Fatal(err)
	}
	if cfg[KeyHourlyRate] != "150" {
		t.Errorf("expected refreshed rate 150 after TTL, got %q", cfg[KeyHourlyRate])
	}
}

func TestGetEmptyConfigFails(t *testing.T) {
	c, cs, _ := newTestCache(t)
	ctx := context.Background()

	// Segment exists but holds nothing: distinct from absent, must fail.
	if _, err := cs.Store.CreateSegment(ctx, "doc", SegmentName); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "doc"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("got %v, want ErrConfigNotFound", err)
	}
}

func TestGetSkipsIncompleteRows(t *testing.T) {
	c, cs, _ := newTestCache(t)
	ctx := context.Background()

	if _, err := cs.Store.CreateSegment(ctx, "doc", SegmentName); err != nil {
		t.Fatal(err)
	}
	cells := map[string]string{
		"A1": "Hourly Rate", "B1": "85",
		"A2": "Orphan key", // no value in B2
		"B3": "orphan value",
		"A4": "Timezone", "B4": "Europe/Madrid",
	}
	for cell, v := range cells {
		if err := cs.Store.UpdateCell(ctx, "doc", SegmentName, cell, v); err != nil {
			t.Fatal(err)
		}
	}

	cfg, err := c.Get(ctx, "doc")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg) != 2 || cfg["Hourly Rate"] != "85" || cfg["Timezone"] != "Europe/Madrid" {
		t.Errorf("unexpected folded config: %v", cfg)
	}
}

func TestConcurrentMissesProvisionOnce(t *testing.T) {
	c, cs, _ := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(ctx, "doc")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goroutine %d: %v", i, err)
		}
	}
	// Per-key serialization means only the first miss hits the store.
	if got := cs.readCount(); got != 1 {
		t.Errorf("expected exactly 1 store read, got %d", got)
	}
}
