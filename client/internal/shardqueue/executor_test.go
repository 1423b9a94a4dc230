package shardqueue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
)

// blockShard occupies the worker serving key until the returned func is called.
func blockShard(t *testing.T, ex *ShardExecutor, key string) (release func()) {
	t.Helper()
	started := make(chan struct{})
	unblock := make(chan struct{})
	if err := ex.Submit(context.Background(), key, JobFunc(func(context.Context) error {
		close(started)
		<-unblock
		return nil
	})); err != nil {
		t.Fatalf("submit blocking job: %v", err)
	}
	<-started
	var once sync.Once
	return func() { once.Do(func() { close(unblock) }) }
}

// otherShardKey returns a movie id whose shard differs from key's.
func otherShardKey(t *testing.T, ex *ShardExecutor, key string) string {
	t.Helper()
	for id := 1; id < 10000; id++ {
		k := strconv.Itoa(id)
		if ex.shardFor(k) != ex.shardFor(key) {
			return k
		}
	}
	t.Fatal("no key on another shard")
	return ""
}

// Each mutation of a movie settles before the next one for that movie runs.
func TestSubmit_SameMovieRunsAndSettlesInOrder(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 4, QueueSize: 16})
	defer ex.Stop()

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	jobs := make([]*settlingJob, 4)
	for i := range jobs {
		n := i
		jobs[i] = newSettlingJob(func(context.Context) error {
			record(fmt.Sprintf("run%d", n))
			return nil
		})
		jobs[i].onSettle = func(error) { record(fmt.Sprintf("settle%d", n)) }
		if err := ex.Submit(context.Background(), "603", jobs[i]); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	for _, j := range jobs {
		if err := j.wait(t); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []string{"run0", "settle0", "run1", "settle1", "run2", "settle2", "run3", "settle3"}
	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

// A slow mutation for one movie does not delay a movie on another shard.
func TestSubmit_OtherMovieNotBlocked(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 4})
	defer ex.Stop()

	release := blockShard(t, ex, "603")
	defer release()

	j := newSettlingJob(func(context.Context) error { return nil })
	if err := ex.Submit(context.Background(), otherShardKey(t, ex, "603"), j); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := j.wait(t); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Client errors are final on the first attempt; server errors are retried.
func TestSettle_ClassifiedHTTPErrors(t *testing.T) {
	cases := []struct {
		status   int
		attempts int32
	}{
		{http.StatusBadRequest, 1},
		{http.StatusNotFound, 1},
		{http.StatusConflict, 1},
		{http.StatusFound, 1},
		{http.StatusTooManyRequests, 3},
		{http.StatusInternalServerError, 3},
		{http.StatusBadGateway, 3},
	}
	ex := NewShardExecutor(Config{Shards: 2, MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxInterval: time.Millisecond})
	defer ex.Stop()

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			var attempts int32
			j := newSettlingJob(func(context.Context) error {
				atomic.AddInt32(&attempts, 1)
				return clienterrors.NewHTTPError(tc.status, "", "set preference")
			})
			if err := ex.Submit(context.Background(), "155", j); err != nil {
				t.Fatalf("submit: %v", err)
			}
			err := j.wait(t)
			var ce *clienterrors.ClassifiedError
			if !errors.As(err, &ce) || ce.StatusCode != tc.status {
				t.Fatalf("settled with %v, want status %d", err, tc.status)
			}
			if got := atomic.LoadInt32(&attempts); got != tc.attempts {
				t.Fatalf("attempts = %d, want %d", got, tc.attempts)
			}
		})
	}
}

// A full shard reports back-pressure; the refused job is never settled.
func TestSubmit_QueueFull(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 1, QueueSize: 1, EnqueueTimeout: 10 * time.Millisecond})
	defer ex.Stop()

	release := blockShard(t, ex, "603")
	queued := newSettlingJob(func(context.Context) error { return nil })
	if err := ex.Submit(context.Background(), "603", queued); err != nil {
		t.Fatalf("submit queued job: %v", err)
	}

	refused := newSettlingJob(func(context.Context) error { return nil })
	err := ex.Submit(context.Background(), "603", refused)
	var qf *QueueFullError
	if !errors.As(err, &qf) || !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected QueueFullError, got %v", err)
	}
	if qf.Shard != 0 || qf.Capacity != 1 || qf.Length != 1 {
		t.Fatalf("unexpected diagnostics: %+v", qf)
	}

	release()
	if err := queued.wait(t); err != nil {
		t.Fatalf("queued job: %v", err)
	}
	select {
	case err := <-refused.settled:
		t.Fatalf("refused job settled with %v", err)
	case <-time.After(20 * time.Millisecond):
	}
}

// A caller whose context ends while waiting for room gets ctx.Err.
func TestSubmit_CallerCanceledWhileQueueFull(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 1, QueueSize: 1, EnqueueTimeout: time.Second})
	defer ex.Stop()

	release := blockShard(t, ex, "7")
	defer release()
	_ = ex.Submit(context.Background(), "7", JobFunc(func(context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := ex.Submit(ctx, "7", JobFunc(func(context.Context) error { return nil })); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

// Mutations still queued when the executor stops run once and settle.
func TestStop_DrainsQueuedMutations(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 1, QueueSize: 8})
	release := blockShard(t, ex, "42")

	var runs int32
	jobs := make([]*settlingJob, 3)
	for i := range jobs {
		jobs[i] = newSettlingJob(func(context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		})
		if err := ex.Submit(context.Background(), "42", jobs[i]); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	stopped := make(chan struct{})
	go func() { ex.Stop(); close(stopped) }()
	release()

	for _, j := range jobs {
		if err := j.wait(t); err != nil {
			t.Fatalf("drained job: %v", err)
		}
	}
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	if got := atomic.LoadInt32(&runs); got != 3 {
		t.Fatalf("runs = %d, want 3", got)
	}
	if err := ex.Submit(context.Background(), "42", JobFunc(func(context.Context) error { return nil })); !errors.Is(err, ErrExecutorClosed) {
		t.Fatalf("expected ErrExecutorClosed after Stop, got %v", err)
	}
}

// Under a concurrent Stop every accepted job settles exactly once and every
// refused job never settles.
func TestSubmit_StopRaceSettlesAcceptedJobsOnce(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 4, QueueSize: 64})

	const n = 400
	var (
		wg       sync.WaitGroup
		accepted int32
		settles  int32
	)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			j := &countingJob{settles: &settles}
			if err := ex.Submit(context.Background(), strconv.Itoa(i), j); err == nil {
				atomic.AddInt32(&accepted, 1)
			} else if !errors.Is(err, ErrExecutorClosed) && !errors.Is(err, ErrQueueFull) {
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
	}
	go ex.Stop()
	wg.Wait()
	ex.Stop()

	if a, s := atomic.LoadInt32(&accepted), atomic.LoadInt32(&settles); a != s {
		t.Fatalf("accepted %d jobs but settled %d", a, s)
	}
}

type countingJob struct{ settles *int32 }

func (j *countingJob) Run(context.Context) error { return nil }
func (j *countingJob) Settle(error)              { atomic.AddInt32(j.settles, 1) }

// The error handler sees the final outcome once, not every retry, and a
// panicking handler does not stop the shard.
func TestErrorHandler_FinalErrorOnly(t *testing.T) {
	var calls int32
	ex := NewShardExecutor(Config{
		Shards:      1,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		ErrorHandler: func(error) {
			atomic.AddInt32(&calls, 1)
			panic("handler panic")
		},
	})
	defer ex.Stop()

	failing := newSettlingJob(func(context.Context) error {
		return clienterrors.NewHTTPError(http.StatusServiceUnavailable, "", "clear preference")
	})
	_ = ex.Submit(context.Background(), "11", failing)
	if err := failing.wait(t); err == nil {
		t.Fatal("expected failure")
	}

	next := newSettlingJob(func(context.Context) error { return nil })
	_ = ex.Submit(context.Background(), "11", next)
	if err := next.wait(t); err != nil {
		t.Fatalf("follow-up job: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("handler calls = %d, want 1", got)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := (Config{}).withDefaults()
	if cfg.Shards != want.Shards || cfg.QueueSize != want.QueueSize || cfg.EnqueueTimeout != want.EnqueueTimeout ||
		cfg.MaxAttempts != want.MaxAttempts || cfg.BaseBackoff != want.BaseBackoff || cfg.MaxInterval != want.MaxInterval {
		t.Fatalf("env defaults %+v differ from zero-value defaults %+v", cfg, want)
	}

	t.Setenv("SQ_SHARDS", "16")
	t.Setenv("SQ_MAX_ATTEMPTS", "2")
	t.Setenv("SQ_BASE_BACKOFF", "25ms")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Shards != 16 || cfg.MaxAttempts != 2 || cfg.BaseBackoff != 25*time.Millisecond || cfg.QueueSize != 128 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
