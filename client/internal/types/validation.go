package types

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Adam14b/recsys-project/client/internal/shardqueue"
)

// ------------------------------
// Shared Interfaces
// ------------------------------

// Executor interface for dependency injection (used by async operations)
type Executor interface {
	Submit(context.Context, string, shardqueue.Job) error
}

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ------------------------------
// Validation
// ------------------------------

// ValidateMovieID rejects non-positive ids.
func ValidateMovieID(id MovieID) error {
	if id <= 0 {
		return fmt.Errorf("movie id must be positive, got %d", id)
	}
	return nil
}

// ValidateRating accepts only Like and Dislike; None is expressed by a clear.
func ValidateRating(p Preference) error {
	if p != Like && p != Dislike {
		return fmt.Errorf("rating must be like or dislike, got %s", p)
	}
	return nil
}

// ValidateCollectionName accepts the names the remote service serves.
func ValidateCollectionName(name string) error {
	switch name {
	case CollectionPopular, CollectionNew, CollectionRecommended:
		return nil
	default:
		return fmt.Errorf("unknown collection %q", name)
	}
}

// ValidateWeights requires both weights in [0,1].
func ValidateWeights(content, collaborative float64) error {
	if content < 0 || content > 1 || collaborative < 0 || collaborative > 1 {
		return fmt.Errorf("weights must be within [0,1], got content=%v collaborative=%v", content, collaborative)
	}
	return nil
}
