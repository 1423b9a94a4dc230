package shardqueue

import "context"

// Job is a unit of work executed by a ShardExecutor.
// Run must be safe for concurrent invocations when the same Job instance is reused.
type Job interface {
	Run(ctx context.Context) error
}

// Settler is implemented by jobs that need their final outcome: nil after a
// successful Run, the last error once retries are exhausted or the error is
// irrecoverable, ctx.Err() when the job was skipped, ErrExecutorClosed when the
// executor stopped mid-retry. Settle is called exactly once per submitted job,
// on the shard worker, before the next job of that shard starts.
type Settler interface {
	Settle(err error)
}

// JobFunc is a helper to adapt a function to a Job.
type JobFunc func(ctx context.Context) error

// Run implements Job for JobFunc.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }
