package collection

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by a Loader after Close.
var ErrClosed = errors.New("collection loader closed")

// CollectionError scopes a load failure to one collection. Kind is one of the
// client failure sentinels (unavailable, malformed, auth required).
type CollectionError struct {
	Collection string
	Kind       error
	Err        error
}

func (e *CollectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("collection %s: %v", e.Collection, e.Kind)
	}
	return fmt.Sprintf("collection %s: %v: %v", e.Collection, e.Kind, e.Err)
}

// Is matches the failure kind.
func (e *CollectionError) Is(target error) bool { return target == e.Kind }

func (e *CollectionError) Unwrap() error { return e.Err }
