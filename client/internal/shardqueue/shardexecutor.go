// Package shardqueue provides a lightweight sharded work‑queue that guarantees
// FIFO order *per key* while allowing parallelism across shards.
//
// The client keys jobs by movie id, so every preference mutation for one movie
// runs strictly after the previous one has settled.
//
// **Contract**: Callers **must not** invoke Submit concurrently for the *same*
// key.  FIFO ordering relies on that external serialisation.
package shardqueue

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/Adam14b/recsys-project/client/internal/errors"
)

type queuedJob struct {
	ctx context.Context
	job Job
}

// ShardExecutor executes Jobs on worker goroutines partitioned by a stable hash
// of the key (e.g. movie id).  FIFO ordering is preserved within a shard; jobs
// with different keys may run in parallel.
type ShardExecutor struct {
	cfg    Config
	queues []chan queuedJob // len == cfg.Shards

	done chan struct{} // closed when Stop begins
	quit chan struct{} // closed once no Submit can still enqueue

	mu         sync.Mutex
	closed     bool
	submitters sync.WaitGroup
	stopOnce   sync.Once

	wg sync.WaitGroup
}

// NewShardExecutor constructs the executor and starts its shard workers.
func NewShardExecutor(cfg Config) *ShardExecutor {
	cfg = cfg.withDefaults()
	p := &ShardExecutor{
		cfg:    cfg,
		queues: make([]chan queuedJob, cfg.Shards),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		p.queues[i] = ch
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}
	return p
}

// Submit enqueues job for the shard derived from key.
//
//   - Returns nil on success.
//   - Returns ErrExecutorClosed if the executor is stopped.
//   - Returns ErrQueueFull (wrapped in *QueueFullError) if the shard is full
//     after EnqueueTimeout elapses.
//   - Returns ctx.Err() if the caller‑provided context is cancelled first.
//
// When Submit returns an error the job is not settled; the caller owns the outcome.
func (p *ShardExecutor) Submit(ctx context.Context, key string, job Job) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrExecutorClosed
	}
	p.submitters.Add(1)
	p.mu.Unlock()
	defer p.submitters.Done()

	qj := queuedJob{ctx: ctx, job: job}
	shard := p.shardFor(key)
	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- qj:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil

	case <-p.done: // Stop() may be called while waiting for space
		return ErrExecutorClosed

	case <-ctx.Done():
		return ctx.Err()

	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{
			Shard:    shard,
			Length:   len(ch),
			Capacity: cap(ch),
		}
	}
}

// Barrier enqueues a no-op job on the shard for key and waits until it runs,
// ensuring all previously submitted jobs for that key have settled.
func (p *ShardExecutor) Barrier(ctx context.Context, key string) error {
	done := make(chan struct{})
	j := JobFunc(func(context.Context) error {
		close(done)
		return nil
	})
	if err := p.Submit(ctx, key, j); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop signals every worker to finish draining its current queue, waits for
// them to terminate, and then returns.  It is idempotent and safe for
// concurrent use; every caller returns only after the queues are drained.
//
// Workers drain only after in-flight Submit calls have returned, so a job
// Submit accepted is always settled.
func (p *ShardExecutor) Stop() {
	p.stopOnce.Do(func() {
		log.Debug().Int("shards", p.cfg.Shards).Msg("shardqueue: stopping executor")
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
		p.submitters.Wait()
		close(p.quit)
		p.wg.Wait()
		log.Debug().Msg("shardqueue: executor stopped, all queues drained")
	})
}

// Close lets ShardExecutor satisfy io.Closer.
func (p *ShardExecutor) Close() error {
	p.Stop()
	return nil
}

// ------------------------- internals -------------------------

func (p *ShardExecutor) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()

	label := labelFor(idx)

	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				continue
			}
			if stopped := p.process(qj, label); stopped {
				<-p.quit
				p.drain(idx, ch, label)
				return
			}
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-p.quit:
			p.drain(idx, ch, label)
			return
		}
	}
}

// process runs one job with retries. It reports true when Stop interrupted a
// backoff wait; the job has been settled with ErrExecutorClosed in that case.
func (p *ShardExecutor) process(qj queuedJob, label string) bool {
	// Honour caller context so a cancelled job doesn't stall the shard.
	if err := qj.ctx.Err(); err != nil {
		p.safeHandleError(err)
		settle(qj.job, err)
		return false
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = p.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := runJob(qj.ctx, qj.job)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil {
			settle(qj.job, nil)
			return false
		}

		// Irrecoverable errors fail fast; so does the last allowed attempt.
		if isIrrecoverableError(err) || attempt >= p.cfg.MaxAttempts {
			p.safeHandleError(err)
			settle(qj.job, err)
			return false
		}

		retriesTotal.WithLabelValues(label).Inc()
		wait := exp.NextBackOff()
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-p.done:
			timer.Stop()
			settle(qj.job, fmt.Errorf("%w: last attempt: %v", ErrExecutorClosed, err))
			return true
		case <-qj.ctx.Done():
			timer.Stop()
			p.safeHandleError(qj.ctx.Err())
			settle(qj.job, qj.ctx.Err())
			return false
		}
	}
}

// drain runs the jobs still queued once each, preserving FIFO, then returns.
func (p *ShardExecutor) drain(idx int, ch <-chan queuedJob, label string) {
	remaining := len(ch)
	if remaining > 0 {
		log.Debug().Int("worker", idx).Int("jobs", remaining).Msg("shardqueue: draining remaining jobs")
	}
	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				continue
			}
			if err := qj.ctx.Err(); err != nil {
				settle(qj.job, err)
				continue
			}
			settle(qj.job, runJob(qj.ctx, qj.job))
		default:
			queueDepth.WithLabelValues(label).Set(0)
			return
		}
	}
}

// runJob converts a panicking job into an error so one bad job cannot take
// down its shard.
func runJob(ctx context.Context, j Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("shardqueue: job panic")
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return j.Run(ctx)
}

func settle(j Job, err error) {
	s, ok := j.(Settler)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("shardqueue: settle panic")
		}
	}()
	s.Settle(err)
}

func (p *ShardExecutor) safeHandleError(err error) {
	if err == nil || p.cfg.ErrorHandler == nil {
		return
	}
	func() {
		// Guard against panics in the user‑supplied handler.
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("shardqueue: error handler panic")
			}
		}()
		p.cfg.ErrorHandler(err)
	}()
}

func (p *ShardExecutor) shardFor(key string) int {
	h := fnv.New32a() // fast and sufficient at our scale
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.cfg.Shards))
}

// isIrrecoverableError checks if an error should not be retried.
func isIrrecoverableError(err error) bool {
	return errors.IsIrrecoverable(err) || isPanic(err)
}
