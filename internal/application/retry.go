package application

import (
	"context"
	"time"
)

// RetryPolicy re-runs a failing operation with multiplicative backoff.
// Retries is the number of re-attempts after the first try; the wait before
// re-attempt n grows by Multiplier each time, capped at MaxDelay.
type RetryPolicy struct {
	Retries      int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ConfirmRetryPolicy bounds purchase confirmation: three attempts in total,
// waiting 500ms then 1s between them.
var ConfirmRetryPolicy = RetryPolicy{
	Retries:      2,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     1500 * time.Millisecond,
	Multiplier:   2,
}

func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	delay := p.InitialDelay

	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.Retries {
			return err
		}

		if waitErr := waitFor(ctx, delay); waitErr != nil {
			return waitErr
		}
		delay = p.nextDelay(delay)
	}
}

func (p RetryPolicy) nextDelay(delay time.Duration) time.Duration {
	if p.Multiplier > 1 {
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

func waitFor(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
