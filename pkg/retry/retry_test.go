package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnTerminalError(t *testing.T) {
	terminal := errors.New("status 409 (timer_already_running): timer already running")
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return terminal
	})
	if !errors.Is(err, terminal) {
		t.Fatalf("got %v, want terminal error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on terminal errors)", calls)
	}
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	transient := errors.New("timeout")
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("got %v, want wrapped transient error", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (initial + 3 retries)", calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), func() error {
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection refused"), true},
		{errors.New("gateway returned status 503: busy"), true},
		{errors.New("status 429 (rate_limited): slow down"), true},
		{errors.New("status 404 (no_active_timer): no active timer"), false},
		{errors.New("status 409 (timer_already_running): timer already running"), false},
		{errors.New("unexpected EOF"), true},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
