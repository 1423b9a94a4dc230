package mutation

import (
	"context"

	"github.com/Adam14b/recsys-project/client/internal/types"
)

// Ticket tracks one requested mutation until the remote outcome is known.
type Ticket struct {
	id     types.MovieID
	target types.Preference
	done   chan struct{}
	err    error
}

func newTicket(id types.MovieID, target types.Preference) *Ticket {
	return &Ticket{id: id, target: target, done: make(chan struct{})}
}

func finishedTicket(id types.MovieID, target types.Preference, err error) *Ticket {
	t := newTicket(id, target)
	t.finish(err)
	return t
}

// MovieID is the movie the mutation applies to.
func (t *Ticket) MovieID() types.MovieID { return t.id }

// Target is the value the mutation writes. A toggled Like or Dislike has target None.
func (t *Ticket) Target() types.Preference { return t.target }

// Done is closed once the mutation has settled.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Err returns the settled outcome. It is nil until Done is closed.
func (t *Ticket) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the mutation settles or ctx ends.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Ticket) finish(err error) {
	t.err = err
	close(t.done)
}

// Refused returns a ticket already settled with err. Nothing was applied.
func Refused(id types.MovieID, err error) *Ticket {
	return finishedTicket(id, types.None, err)
}
