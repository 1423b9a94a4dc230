package client

import (
	"context"

	"github.com/Adam14b/recsys-project/client/internal/shardqueue"
)

// executor runs remote preference mutations, FIFO per movie id.
type executor interface {
	Submit(context.Context, string, shardqueue.Job) error
	Stop()
}

// Note: every client owns an executor; sessions share it.
