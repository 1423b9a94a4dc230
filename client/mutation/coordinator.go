// Package mutation applies preference changes optimistically and reconciles
// them with the remote preference service.
//
// Every request updates the local store at once and is then sent to the
// remote service through a per-key executor keyed by movie id, so requests
// for one movie reach the service in the order they were made. A rejected
// request restores the last confirmed value unless a newer request for the
// same movie is still pending.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/types"
)

// ErrClosed settles requests made after Close.
var ErrClosed = errors.New("mutation coordinator closed")

// Remote is the preference service.
type Remote interface {
	SetPreference(ctx context.Context, id types.MovieID, value types.Preference) error
	ClearPreference(ctx context.Context, id types.MovieID) error
}

// Store is the local preference mapping the coordinator writes to.
type Store interface {
	Get(id types.MovieID) types.Preference
	Apply(id types.MovieID, value types.Preference)
}

// State is the reconciliation state of one movie.
type State int

const (
	Settled State = iota
	PendingSet
	PendingClear
)

func (s State) String() string {
	switch s {
	case Settled:
		return "settled"
	case PendingSet:
		return "pending-set"
	case PendingClear:
		return "pending-clear"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Rejection describes a mutation the remote service did not accept.
type Rejection struct {
	MovieID   types.MovieID
	Requested types.Preference
	// Displayed is the value shown after the rejection was handled.
	Displayed types.Preference
	Err       error
	At        time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithOnRejection registers a callback for rejected mutations. It runs on an
// executor worker and must not block.
func WithOnRejection(fn func(Rejection)) Option {
	return func(c *Coordinator) { c.onRejection = fn }
}

type item struct {
	// submitMu keeps enqueue order equal to request order for one movie.
	submitMu  sync.Mutex
	confirmed types.Preference
	// serverConfirmed is set once the remote service accepted a request, so
	// confirmed no longer comes from a possibly stale local read.
	serverConfirmed bool
	pending         []*op
}

// Coordinator is the only writer of a view's preference store.
type Coordinator struct {
	ctx    context.Context
	store  Store
	remote Remote
	exec   types.Executor

	mu     sync.Mutex
	items  map[types.MovieID]*item
	closed bool

	onRejection func(Rejection)
	log         zerolog.Logger
}

// New returns a coordinator. Remote calls run with ctx, which should end when
// the owning view closes.
func New(ctx context.Context, store Store, remote Remote, exec types.Executor, opts ...Option) *Coordinator {
	c := &Coordinator{
		ctx:    ctx,
		store:  store,
		remote: remote,
		exec:   exec,
		items:  make(map[types.MovieID]*item),
		log:    log.Logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Like sets Like, or clears when Like is already the current value.
func (c *Coordinator) Like(id types.MovieID) *Ticket { return c.request(id, types.Like, true) }

// Dislike sets Dislike, or clears when Dislike is already the current value.
func (c *Coordinator) Dislike(id types.MovieID) *Ticket { return c.request(id, types.Dislike, true) }

// Unlike clears whatever preference id has.
func (c *Coordinator) Unlike(id types.MovieID) *Ticket { return c.request(id, types.None, false) }

// State reports whether id has mutations in flight and the newest pending target.
func (c *Coordinator) State(id types.MovieID) (State, types.Preference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok || len(it.pending) == 0 {
		return Settled, c.store.Get(id)
	}
	target := it.pending[len(it.pending)-1].target
	if target == types.None {
		return PendingClear, target
	}
	return PendingSet, target
}

// Close stops accepting requests. Outcomes that settle afterwards no longer
// touch the store.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Reconcile adopts server values read by a hydration that kept local values
// for these ids. A value the remote service confirmed since then wins; for
// every other id the server value becomes the rollback target and, when
// nothing is pending, the displayed value.
func (c *Coordinator) Reconcile(server []types.PreferenceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for _, r := range server {
		it, ok := c.items[r.MovieID]
		if !ok || it.serverConfirmed {
			continue
		}
		it.confirmed = r.Value
		if len(it.pending) == 0 && c.store.Get(r.MovieID) != r.Value {
			c.store.Apply(r.MovieID, r.Value)
		}
		c.log.Debug().Stringer("movie", r.MovieID).Stringer("server", r.Value).Msg("mutation: adopted server value as confirmed")
	}
}

func (c *Coordinator) request(id types.MovieID, value types.Preference, toggle bool) *Ticket {
	if err := types.ValidateMovieID(id); err != nil {
		return finishedTicket(id, value, err)
	}

	c.mu.Lock()
	it, ok := c.items[id]
	if !ok {
		it = &item{}
		c.items[id] = it
	}
	c.mu.Unlock()

	it.submitMu.Lock()
	defer it.submitMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return finishedTicket(id, value, ErrClosed)
	}
	cur := c.store.Get(id)
	target := value
	if toggle && cur == value {
		target = types.None
	}
	if len(it.pending) == 0 {
		it.confirmed = cur
	}
	o := &op{c: c, id: id, target: target, ticket: newTicket(id, target)}
	it.pending = append(it.pending, o)
	c.store.Apply(id, target)
	c.mu.Unlock()

	pendingGauge.Inc()
	c.log.Debug().Stringer("movie", id).Stringer("target", target).Msg("mutation: applied optimistically")

	if err := c.exec.Submit(c.ctx, id.String(), o); err != nil {
		c.settle(o, err)
	}
	return o.ticket
}

func (c *Coordinator) settle(o *op, err error) {
	pendingGauge.Dec()

	c.mu.Lock()
	it := c.items[o.id]
	for i, p := range it.pending {
		if p == o {
			it.pending = append(it.pending[:i], it.pending[i+1:]...)
			break
		}
	}
	if c.closed {
		c.mu.Unlock()
		o.ticket.finish(err)
		return
	}
	if err == nil {
		it.confirmed = o.target
		it.serverConfirmed = true
	}
	display := it.confirmed
	if n := len(it.pending); n > 0 {
		display = it.pending[n-1].target
	}
	rolledBack := false
	if c.store.Get(o.id) != display {
		c.store.Apply(o.id, display)
		rolledBack = err != nil
	}
	c.mu.Unlock()

	kind := kindLabel(int8(o.target))
	if err == nil {
		mutationsTotal.WithLabelValues(kind, "confirmed").Inc()
		o.ticket.finish(nil)
		return
	}

	mutationsTotal.WithLabelValues(kind, "rejected").Inc()
	if rolledBack {
		rollbacksTotal.Inc()
	}
	rejected := fmt.Errorf("%w: %w", clienterrors.ErrMutationRejected, err)
	c.log.Warn().Err(err).Stringer("movie", o.id).Stringer("requested", o.target).Stringer("displayed", display).Msg("mutation: rejected")
	if c.onRejection != nil {
		c.onRejection(Rejection{MovieID: o.id, Requested: o.target, Displayed: display, Err: rejected, At: time.Now()})
	}
	o.ticket.finish(rejected)
}

// op is one remote call; it runs and settles on the executor shard of its movie.
type op struct {
	c      *Coordinator
	id     types.MovieID
	target types.Preference
	ticket *Ticket
}

func (o *op) Run(ctx context.Context) error {
	if o.target == types.None {
		return o.c.remote.ClearPreference(ctx, o.id)
	}
	return o.c.remote.SetPreference(ctx, o.id, o.target)
}

func (o *op) Settle(err error) { o.c.settle(o, err) }
