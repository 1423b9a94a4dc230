package shardqueue

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull means a movie's shard had no room within EnqueueTimeout.
	// The mutation was not accepted and may be retried by the caller.
	ErrQueueFull = errors.New("shardqueue: mutation queue full")

	// ErrExecutorClosed means Stop has been called. It is also the settle
	// error of a mutation whose retry was cut short by Stop.
	ErrExecutorClosed = errors.New("shardqueue: executor closed")

	// ErrJobPanicked wraps the value recovered from a panicking job.
	ErrJobPanicked = errors.New("shardqueue: job panicked")
)

// QueueFullError is the back-pressure error returned by Submit. It matches
// ErrQueueFull with errors.Is.
type QueueFullError struct {
	Shard    int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("%v: shard %d holds %d/%d", ErrQueueFull, e.Shard, e.Length, e.Capacity)
}

func (e *QueueFullError) Is(target error) bool { return target == ErrQueueFull }

func isPanic(err error) bool { return errors.Is(err, ErrJobPanicked) }
