package attempt

import (
	"context"
	"errors"
	"time"
)

// RetryStore wraps a Recorder and retries the two finalization writes with
// bounded backoff. Safe because Finalize and UpsertResult are idempotent per
// attempt id; read paths and BeginAttempt are passed through untouched
// (a failed begin has nothing to roll back).
type RetryStore struct {
	Recorder
	attempts int
	backoff  time.Duration
	sleep    func(context.Context, time.Duration) error
}

func NewRetryStore(inner Recorder, attempts int, backoff time.Duration) *RetryStore {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	return &RetryStore{
		Recorder: inner,
		attempts: attempts,
		backoff:  backoff,
		sleep:    sleepCtx,
	}
}

func (r *RetryStore) Finalize(ctx context.Context, in FinalizeInput) error {
	return r.retry(ctx, func() error { return r.Recorder.Finalize(ctx, in) })
}

func (r *RetryStore) UpsertResult(ctx context.Context, s Summary) error {
	return r.retry(ctx, func() error { return r.Recorder.UpsertResult(ctx, s) })
}

func (r *RetryStore) retry(ctx context.Context, op func() error) error {
	delay := r.backoff
	var err error
	for i := 0; i < r.attempts; i++ {
		err = op()
		if err == nil || !errors.Is(err, ErrUnavailable) {
			return err
		}
		if i == r.attempts-1 {
			break
		}
		if serr := r.sleep(ctx, delay); serr != nil {
			return serr
		}
		delay *= 2
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
