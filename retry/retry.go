package retry

import (
	"context"
	"time"

	"readfile/logger"
)

// Policy bounds how often a failed send is tried again.
type Policy struct {
	Retries        int // extra attempts after the first; 0 disables retry
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type SenderFunc func(ctx context.Context) error

// Execute runs send until it succeeds, retries are exhausted or ctx ends.
// Backoff doubles after every failure, capped at MaxBackoff.
func Execute(ctx context.Context, p Policy, op string, send SenderFunc) error {
	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = send(ctx)
		if err == nil || attempt > p.Retries {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		logger.L().Warn("retry.scheduled",
			"op", op,
			"attempt", attempt,
			"backoff", backoff.String(),
			"err", err,
		)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
}
