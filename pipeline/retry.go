package pipeline

import (
	"context"
	"errors"
	"time"

	"portfolio/metrics"
	"portfolio/storage"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff waits attempt*base before each retry: 1s, 2s, 3s...
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.base
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// retry runs fn until it succeeds, the attempts run out or ctx is done.
// fn gets the 1-based attempt number. A missing media object is never retried.
func (p *Pipeline) retry(ctx context.Context, op string, fn func(attempt int) error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: p.cfg.Backoff}, uint64(p.cfg.Attempts-1)),
		ctx,
	)
	attempt := 0
	operation := func() error {
		attempt++
		err := fn(attempt)
		if errors.Is(err, storage.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		metrics.RetriesTotal.WithLabelValues(op).Inc()
		p.log.Warn().Err(err).
			Str("operation", op).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("retrying")
	}
	return backoff.RetryNotifyWithTimer(operation, policy, notify, p.newTimer())
}
