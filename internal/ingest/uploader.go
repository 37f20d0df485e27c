package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gogotex/pdfstore/internal/document"
	"github.com/gogotex/pdfstore/internal/storage"
	"github.com/gogotex/pdfstore/pkg/logger"
	"github.com/gogotex/pdfstore/pkg/metrics"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the wall-clock Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryPolicy bounds the attempts made for one segment.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Timeout  time.Duration
}

// DefaultRetryPolicy is 3 attempts, 1s apart, 90 seconds each.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: time.Second, Timeout: 90 * time.Second}
}

// Uploader writes segments to the object store with a fixed-delay retry.
type Uploader struct {
	store  storage.ObjectStore
	policy RetryPolicy
	sleep  Sleeper
	log    *slog.Logger
}

func NewUploader(store storage.ObjectStore, policy RetryPolicy) *Uploader {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &Uploader{store: store, policy: policy, sleep: SleepContext, log: logger.With("component", "uploader")}
}

// WithSleeper replaces the wait between attempts.
func (u *Uploader) WithSleeper(s Sleeper) *Uploader {
	u.sleep = s
	return u
}

// Upload stores data under folder and returns its reference. Each attempt
// gets its own timeout; a timed-out attempt is retried like any other
// failure. When every attempt fails the error wraps document.ErrUploadFailed
// and the last cause.
func (u *Uploader) Upload(ctx context.Context, folder string, data []byte) (storage.Ref, error) {
	var (
		ref     storage.Ref
		lastErr error
		attempt int
	)
	op := func() error {
		attempt++
		r, err := u.put(ctx, folder, data)
		metrics.ObserveUpload(err)
		if err != nil {
			lastErr = err
			return err
		}
		ref = r
		return nil
	}
	notify := func(err error, next time.Duration) {
		u.log.Warn("upload failed, will retry",
			"attempt", attempt,
			"maxAttempts", u.policy.Attempts,
			"delay", next.String(),
			"bytes", len(data),
			"error", err,
		)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(u.policy.Delay), uint64(u.policy.Attempts-1)),
		ctx,
	)
	if err := backoff.RetryNotifyWithTimer(op, b, notify, newSleeperTimer(ctx, u.sleep)); err == nil {
		if attempt > 1 {
			u.log.Info("upload succeeded after retry", "attempt", attempt, "storeId", ref.StoreID)
		}
		return ref, nil
	}
	u.log.Error("upload failed", "attempts", attempt, "bytes", len(data), "error", lastErr)
	return storage.Ref{}, fmt.Errorf("%w after %d attempt(s): %w", document.ErrUploadFailed, attempt, lastErr)
}

func (u *Uploader) put(ctx context.Context, folder string, data []byte) (storage.Ref, error) {
	if u.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.policy.Timeout)
		defer cancel()
	}
	return u.store.Put(ctx, folder, data)
}

// sleeperTimer drives the backoff loop through a Sleeper. It fires only when
// the sleep completes; a cancelled sleep leaves the loop to observe ctx.
type sleeperTimer struct {
	ctx   context.Context
	sleep Sleeper
	c     chan time.Time
}

func newSleeperTimer(ctx context.Context, sleep Sleeper) *sleeperTimer {
	return &sleeperTimer{ctx: ctx, sleep: sleep, c: make(chan time.Time, 1)}
}

func (t *sleeperTimer) Start(d time.Duration) {
	go func() {
		if t.sleep(t.ctx, d) == nil {
			t.c <- time.Now()
		}
	}()
}

func (t *sleeperTimer) Stop() {}

func (t *sleeperTimer) C() <-chan time.Time { return t.c }
