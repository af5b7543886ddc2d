// Package ledger implements the time-ledger engine: start/stop timer
// operations whose durable state lives entirely in an external tabular
// document store. Whether a timer is running is derived from the shape of
// the stored rows on every call; the engine itself persists nothing but a
// TTL-bounded settings cache.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/gridtime/gridtime/pkg/logging"
	"github.com/gridtime/gridtime/pkg/settings"
	"github.com/gridtime/gridtime/pkg/store"
	"github.com/gridtime/gridtime/pkg/timefmt"
)

// Engine composes segment resolution, provisioning and the timer state
// machine behind the two public operations StartTimer and StopTimer.
//
// Each operation holds a per-document lock across its whole
// resolve-check-mutate sequence. The store calls inside that sequence are
// still independent remote calls; a request aborted mid-sequence can leave
// a segment created but not yet laid out. That is an accepted failure mode,
// not one the engine resolves.
type Engine struct {
	store    store.Store
	settings *settings.Cache
	layout   periodLayout
	locks    *lockMap
	log      *logging.Logger
	now      func() time.Time
}

// New creates an engine over the given store and settings cache.
func New(s store.Store, cfg *settings.Cache, log *logging.Logger) *Engine {
	return &Engine{
		store:    s,
		settings: cfg,
		layout:   layoutV1,
		locks:    newLockMap(),
		log:      log.WithField("component", "ledger"),
		now:      time.Now,
	}
}

// SetClock replaces the engine's time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// StartResult is the outcome of a successful StartTimer.
type StartResult struct {
	Segment string `json:"segment"`
	Date    string `json:"date"`
	Start   string `json:"start"`
}

// StopResult is the outcome of a successful StopTimer.
type StopResult struct {
	Segment  string `json:"segment"`
	End      string `json:"end"`
	Duration string `json:"duration"`
}

// Status is a read-only snapshot of the derived timer state.
type Status struct {
	Segment string `json:"segment,omitempty"`
	Running bool   `json:"running"`
	Date    string `json:"date,omitempty"`
	Start   string `json:"start,omitempty"`
}

// StartTimer begins a new timed entry for a document. The current period
// segment is resolved (and provisioned when absent); if its last row is
// still open the call fails with ErrTimerAlreadyRunning. The description is
// accepted for the caller's benefit and logged, but not persisted: the
// five-column row layout has no destination for it.
func (e *Engine) StartTimer(ctx context.Context, docID, description string) (*StartResult, error) {
	lock := e.locks.get(docID)
	lock.Lock()
	defer lock.Unlock()

	cfg, err := e.settings.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	tz := cfg[settings.KeyTimezone]

	segment, err := e.currentSegment(ctx, docID)
	if errors.Is(err, errNoOpenSegment) {
		segment, err = e.createPeriodSegment(ctx, docID, tz)
	}
	if err != nil {
		return nil, err
	}

	entry, ok, err := e.readLastEntry(ctx, docID, segment)
	if err != nil {
		return nil, err
	}
	if ok && entry.open() {
		return nil, ErrTimerAlreadyRunning
	}

	local := timefmt.ApplyTimezone(e.now(), tz)
	date := timefmt.FormatDate(local)
	start := timefmt.FormatClock(local)
	if err := e.store.AppendRow(ctx, docID, segment, []string{date, start, ""}); err != nil {
		return nil, storeErr("append entry", err)
	}

	e.log.Info("timer started", map[string]interface{}{
		"document":    docID,
		"segment":     segment,
		"start":       start,
		"description": description,
	})
	return &StartResult{Segment: segment, Date: date, Start: start}, nil
}

// StopTimer closes the open entry of a document's current segment. The end
// instant defaults to now when the caller passes nil. Fails with
// ErrNoActiveTimer when no segment is current or the last row is already
// closed; an open row anywhere earlier than the last row is invisible here.
func (e *Engine) StopTimer(ctx context.Context, docID string, endAt *time.Time) (*StopResult, error) {
	lock := e.locks.get(docID)
	lock.Lock()
	defer lock.Unlock()

	cfg, err := e.settings.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	tz := cfg[settings.KeyTimezone]

	segment, err := e.currentSegment(ctx, docID)
	if errors.Is(err, errNoOpenSegment) {
		return nil, ErrNoActiveTimer
	}
	if err != nil {
		return nil, err
	}

	entry, ok, err := e.readLastEntry(ctx, docID, segment)
	if err != nil {
		return nil, err
	}
	if !ok || !entry.open() {
		return nil, ErrNoActiveTimer
	}

	instant := e.now()
	if endAt != nil {
		instant = *endAt
	}
	end := timefmt.FormatClock(timefmt.ApplyTimezone(instant, tz))

	if err := e.store.UpdateCell(ctx, docID, segment, e.layout.endCell(entry.Row), end); err != nil {
		return nil, storeErr("close entry", err)
	}

	duration, err := timefmt.DurationBetween(entry.Start, end)
	if err != nil {
		return nil, err
	}

	e.log.Info("timer stopped", map[string]interface{}{
		"document": docID,
		"segment":  segment,
		"end":      end,
		"duration": duration,
	})
	return &StopResult{Segment: segment, End: end, Duration: duration}, nil
}

// TimerStatus derives the current timer state without mutating anything.
func (e *Engine) TimerStatus(ctx context.Context, docID string) (*Status, error) {
	lock := e.locks.get(docID)
	lock.Lock()
	defer lock.Unlock()

	segment, err := e.currentSegment(ctx, docID)
	if errors.Is(err, errNoOpenSegment) {
		return &Status{}, nil
	}
	if err != nil {
		return nil, err
	}

	entry, ok, err := e.readLastEntry(ctx, docID, segment)
	if err != nil {
		return nil, err
	}
	status := &Status{Segment: segment}
	if ok && entry.open() {
		status.Running = true
		status.Date = entry.Date
		status.Start = entry.Start
	}
	return status, nil
}
