package collection

import (
	"fmt"
	"time"

	"github.com/Adam14b/recsys-project/client/internal/types"
)

// State is the load lifecycle of one named collection.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is the latest known outcome for one collection. Collection is the
// last successful result and stays set while a reload is in flight.
type Status struct {
	Name       string
	State      State
	Collection types.Collection
	Err        error
	UpdatedAt  time.Time
}
