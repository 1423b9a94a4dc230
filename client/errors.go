package client

import (
	"errors"

	"github.com/Adam14b/recsys-project/client/collection"
	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/shardqueue"
)

// ErrClientClosed is returned by OpenSession after Close.
var ErrClientClosed = errors.New("client closed")

// ErrBackPressure is returned when the client's internal shard queue is full.
var ErrBackPressure = shardqueue.ErrQueueFull

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

// Re-export the failure kinds so callers compare against a single symbol.
var (
	ErrAuthRequired          = clienterrors.ErrAuthRequired
	ErrCollectionUnavailable = clienterrors.ErrCollectionUnavailable
	ErrMalformedPayload      = clienterrors.ErrMalformedPayload
	ErrMutationRejected      = clienterrors.ErrMutationRejected
	ErrPreferenceLoadFailed  = clienterrors.ErrPreferenceLoadFailed
)

// ClassifiedError carries the HTTP status and retry category of a failed call.
type ClassifiedError = clienterrors.ClassifiedError

// CollectionError scopes a load failure to one collection.
type CollectionError = collection.CollectionError

// IsAuthRequired reports whether err means the user must sign in.
func IsAuthRequired(err error) bool { return errors.Is(err, ErrAuthRequired) }
