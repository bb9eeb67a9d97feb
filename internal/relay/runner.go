package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/fileferry/ferry/internal/backend"
)

// ErrRunnerClosed is returned by Submit after Close has begun.
var ErrRunnerClosed = errors.New("transfer runner closed")

// Runner executes transfers off the intake path. Concurrency is bounded by a
// weighted semaphore and every transfer goroutine is tracked, so Close can
// drain in-flight work instead of abandoning it.
type Runner struct {
	pipeline *Pipeline
	gateway  backend.Gateway
	slots    *semaphore.Weighted
	wg       sync.WaitGroup
	closed   atomic.Bool
	logger   *slog.Logger
}

// NewRunner creates a runner executing at most maxConcurrent transfers at a
// time against the given gateway.
func NewRunner(log *slog.Logger, pipeline *Pipeline, gw backend.Gateway, maxConcurrent int64) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Runner{
		pipeline: pipeline,
		gateway:  gw,
		slots:    semaphore.NewWeighted(maxConcurrent),
		logger:   log.With(slog.String("service", "runner")),
	}
}

// Gateway returns the gateway this runner uploads to.
func (r *Runner) Gateway() backend.Gateway {
	return r.gateway
}

// Submit schedules one transfer and returns immediately; done receives the
// outcome. The submit context only governs waiting for a slot. Once a
// transfer starts it runs to completion, so shutdown never truncates an
// upload mid-flight.
func (r *Runner) Submit(ctx context.Context, desc FileDescriptor, done func(TransferResult, error)) error {
	if r.closed.Load() {
		return ErrRunnerClosed
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.slots.Acquire(ctx, 1); err != nil {
			done(TransferResult{}, fmt.Errorf("%w: %v", ErrFetchFailed, err))
			return
		}
		defer r.slots.Release(1)
		result, err := r.pipeline.Transfer(context.WithoutCancel(ctx), desc, r.gateway)
		done(result, err)
	}()
	return nil
}

// Close refuses new submissions and waits for in-flight transfers until ctx
// expires.
func (r *Runner) Close(ctx context.Context) error {
	r.closed.Store(true)
	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		r.logger.Warn("close timed out with transfers in flight")
		return ctx.Err()
	}
}
