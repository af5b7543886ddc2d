// Package settings reads per-document configuration from the document's
// Config segment and caches it with a TTL. The cache is process-wide shared
// state; lookups for the same document are serialized so that two
// concurrent misses cannot race to provision the segment twice.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gridtime/gridtime/pkg/store"
)

const (
	// SegmentName is the fixed name of the configuration segment.
	SegmentName = "Config"

	// readRange covers the first rows of the two-column settings area.
	readRange = "A1:B10"

	// DefaultTTL bounds the age of a cached snapshot.
	DefaultTTL = 5 * time.Minute
)

// Well-known setting names.
const (
	KeyHourlyRate = "Hourly Rate"
	KeyTimezone   = "Timezone"
)

// Defaults returns the key/value pairs seeded into a freshly provisioned
// Config segment.
func Defaults() map[string]string {
	return map[string]string{
		KeyHourlyRate: "100",
		KeyTimezone:   "UTC",
	}
}

// ErrConfigNotFound is returned when the Config segment exists but holds no
// settings. An existing-but-empty segment is deliberate state and is never
// silently replaced with defaults.
var ErrConfigNotFound = errors.New("config not found")

// Recorder counts cache lookups by outcome ("hit" or "miss").
type Recorder interface {
	RecordCacheLookup(outcome string)
}

// Cache is a TTL cache of per-document settings snapshots.
type Cache struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time

	recorder Recorder

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu        sync.Mutex
	values    map[string]string
	fetchedAt time.Time
}

// NewCache creates a settings cache over the given store. A non-positive
// ttl selects DefaultTTL.
func NewCache(s store.Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store:   s,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// SetClock replaces the cache's time source. Test hook.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// SetRecorder sets the metrics recorder for the cache.
func (c *Cache) SetRecorder(r Recorder) {
	c.recorder = r
}

// Get returns the settings snapshot for a document, reading through to the
// store when the cached copy is missing or older than the TTL. The returned
// map is shared with the cache and must be treated as read-only.
//
// A fully absent Config segment is provisioned with Defaults as a side
// effect; an existing-but-empty one fails with ErrConfigNotFound.
func (c *Cache) Get(ctx context.Context, docID string) (map[string]string, error) {
	c.mu.Lock()
	e, ok := c.entries[docID]
	if !ok {
		e = &entry{}
		c.entries[docID] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.values != nil && c.now().Sub(e.fetchedAt) < c.ttl {
		c.record("hit")
		return e.values, nil
	}
	c.record("miss")

	values, err := c.fetch(ctx, docID)
	if err != nil {
		return nil, err
	}
	e.values = values
	e.fetchedAt = c.now()
	return values, nil
}

// Ensure provisions the Config segment if it is absent, without consulting
// or refreshing the snapshot TTL.
func (c *Cache) Ensure(ctx context.Context, docID string) error {
	_, err := c.Get(ctx, docID)
	return err
}

func (c *Cache) fetch(ctx context.Context, docID string) (map[string]string, error) {
	rows, err := c.store.ReadRange(ctx, docID, SegmentName, readRange)
	if errors.Is(err, store.ErrNotFound) {
		return c.provision(ctx, docID)
	}
	if err != nil {
		return nil, fmt.Errorf("read config for %s: %w", docID, err)
	}

	values := foldRows(rows)
	if len(values) == 0 {
		return nil, fmt.Errorf("document %s: %w", docID, ErrConfigNotFound)
	}
	return values, nil
}

// provision creates the Config segment with default settings. Losing a
// create race is fine: the defaults are constant, so re-writing them over a
// concurrent writer's identical defaults cannot corrupt state.
func (c *Cache) provision(ctx context.Context, docID string) (map[string]string, error) {
	if _, err := c.store.CreateSegment(ctx, docID, SegmentName); err != nil && !errors.Is(err, store.ErrSegmentExists) {
		return nil, fmt.Errorf("provision config for %s: %w", docID, err)
	}

	defaults := Defaults()
	ops := []store.Op{
		{Kind: store.OpSetValue, Segment: SegmentName, Cell: "A1", Value: KeyHourlyRate},
		{Kind: store.OpSetValue, Segment: SegmentName, Cell: "B1", Value: defaults[KeyHourlyRate]},
		{Kind: store.OpSetValue, Segment: SegmentName, Cell: "A2", Value: KeyTimezone},
		{Kind: store.OpSetValue, Segment: SegmentName, Cell: "B2", Value: defaults[KeyTimezone]},
	}
	if err := c.store.BatchMutate(ctx, docID, ops); err != nil {
		return nil, fmt.Errorf("seed config for %s: %w", docID, err)
	}
	return defaults, nil
}

// foldRows collapses two-column rows into a settings map, skipping rows
// missing either column.
func foldRows(rows [][]string) map[string]string {
	values := make(map[string]string)
	for _, row := range rows {
		if len(row) < 2 || row[0] == "" || row[1] == "" {
			continue
		}
		values[row[0]] = row[1]
	}
	return values
}

func (c *Cache) record(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordCacheLookup(outcome)
	}
}
