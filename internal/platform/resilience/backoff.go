package resilience

import (
	"context"
	"errors"
	"time"
)

var ErrBackoffExhausted = errors.New("backoff attempts exhausted")

type Backoff struct {
	cfg BackoffConfig
}

func NewBackoff(cfg BackoffConfig) Backoff {
	return Backoff{cfg: NormalizeBackoffConfig(cfg)}
}

// Delay returns the wait before the given attempt; attempt 0 waits InitialDelay.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(b.cfg.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= b.cfg.Factor
		if delay >= float64(b.cfg.MaxDelay) {
			return b.cfg.MaxDelay
		}
	}
	return time.Duration(delay)
}

// Wait blocks for Delay(attempt) or until ctx is done.
func (b Backoff) Wait(ctx context.Context, attempt int) error {
	if b.cfg.MaxAttempts > 0 && attempt >= b.cfg.MaxAttempts {
		return ErrBackoffExhausted
	}

	timer := time.NewTimer(b.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
