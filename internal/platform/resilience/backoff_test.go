package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_DelayIsCapped(t *testing.T) {
	b := NewBackoff(BackoffConfig{InitialDelay: time.Second, MaxDelay: 5 * time.Second, Factor: 2})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: time.Second},
		{attempt: 1, want: 2 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 3, want: 5 * time.Second},
		{attempt: 30, want: 5 * time.Second},
	}
	for _, tt := range tests {
		if got := b.Delay(tt.attempt); got != tt.want {
			t.Fatalf("Delay(%d)=%s want=%s", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_WaitHonoursMaxAttemptsAndContext(t *testing.T) {
	b := NewBackoff(BackoffConfig{InitialDelay: time.Hour, MaxAttempts: 2})

	if err := b.Wait(context.Background(), 2); !errors.Is(err, ErrBackoffExhausted) {
		t.Fatalf("expected ErrBackoffExhausted, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Wait(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
