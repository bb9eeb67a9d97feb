package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fileferry/ferry/internal/staging"
)

// blockingOrigin parks every Open call until release is closed and records
// how many were parked at once.
type blockingOrigin struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int
	release  chan struct{}
}

func newBlockingOrigin() *blockingOrigin {
	return &blockingOrigin{release: make(chan struct{})}
}

func (o *blockingOrigin) Open(context.Context, string) (io.ReadCloser, error) {
	o.mu.Lock()
	o.inFlight++
	if o.inFlight > o.maxSeen {
		o.maxSeen = o.inFlight
	}
	o.mu.Unlock()

	<-o.release

	o.mu.Lock()
	o.inFlight--
	o.mu.Unlock()
	return io.NopCloser(strings.NewReader("data")), nil
}

func (o *blockingOrigin) parked() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

func (o *blockingOrigin) peak() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.maxSeen
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func newTestRunner(t *testing.T, origin Origin, maxConcurrent int64) (*Runner, *stubGateway) {
	t.Helper()
	dir, err := staging.New(t.TempDir())
	if err != nil {
		t.Fatalf("staging dir: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := newStubGateway()
	pipeline := NewPipeline(log, origin, dir, 1<<20)
	return NewRunner(log, pipeline, gw, maxConcurrent), gw
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const jobs = 8
	origin := newBlockingOrigin()
	runner, _ := newTestRunner(t, origin, 2)

	var done sync.WaitGroup
	done.Add(jobs)
	for i := 0; i < jobs; i++ {
		desc := FileDescriptor{
			SourceHandle: "h",
			DisplayName:  "f.bin",
			DeclaredSize: SizeUnknown,
			Category:     CategoryDocument,
		}
		err := runner.Submit(context.Background(), desc, func(TransferResult, error) {
			done.Done()
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	waitFor(t, func() bool { return origin.parked() == 2 })
	close(origin.release)
	done.Wait()

	if peak := origin.peak(); peak != 2 {
		t.Fatalf("peak concurrency = %d, want 2", peak)
	}
	if err := runner.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunnerSubmitAfterClose(t *testing.T) {
	t.Parallel()

	origin := newBlockingOrigin()
	close(origin.release)
	runner, _ := newTestRunner(t, origin, 1)

	if err := runner.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	err := runner.Submit(context.Background(), FileDescriptor{}, func(TransferResult, error) {})
	if !errors.Is(err, ErrRunnerClosed) {
		t.Fatalf("err = %v, want ErrRunnerClosed", err)
	}
}

func TestRunnerCancelledWhileQueued(t *testing.T) {
	t.Parallel()

	origin := newBlockingOrigin()
	runner, _ := newTestRunner(t, origin, 1)

	blocked := FileDescriptor{SourceHandle: "h", DisplayName: "a.bin", DeclaredSize: SizeUnknown, Category: CategoryDocument}
	var firstDone sync.WaitGroup
	firstDone.Add(1)
	if err := runner.Submit(context.Background(), blocked, func(TransferResult, error) {
		firstDone.Done()
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, func() bool { return origin.parked() == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	queuedErr := make(chan error, 1)
	if err := runner.Submit(ctx, blocked, func(_ TransferResult, err error) {
		queuedErr <- err
	}); err != nil {
		t.Fatalf("submit queued: %v", err)
	}
	cancel()

	select {
	case err := <-queuedErr:
		if !errors.Is(err, ErrFetchFailed) {
			t.Fatalf("queued err = %v, want ErrFetchFailed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("queued job never reported")
	}

	close(origin.release)
	firstDone.Wait()
	if err := runner.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunnerCloseTimesOutWithStuckTransfer(t *testing.T) {
	t.Parallel()

	origin := newBlockingOrigin()
	runner, _ := newTestRunner(t, origin, 1)

	desc := FileDescriptor{SourceHandle: "h", DisplayName: "a.bin", DeclaredSize: SizeUnknown, Category: CategoryDocument}
	var done sync.WaitGroup
	done.Add(1)
	if err := runner.Submit(context.Background(), desc, func(TransferResult, error) {
		done.Done()
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, func() bool { return origin.parked() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := runner.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("close err = %v, want DeadlineExceeded", err)
	}

	close(origin.release)
	done.Wait()
}
