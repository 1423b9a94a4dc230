// Package collection loads named movie collections from the remote service.
//
// At most one request per name is in flight; callers asking for a name that is
// already loading share the outcome. Different names load in parallel and a
// failure of one never affects another.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/types"
)

// Fetcher retrieves one collection by name.
type Fetcher interface {
	FetchCollection(ctx context.Context, name string) (types.Collection, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, name string) (types.Collection, error)

func (f FetcherFunc) FetchCollection(ctx context.Context, name string) (types.Collection, error) {
	return f(ctx, name)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ld *Loader) { ld.log = l }
}

// WithOnChange registers a hook called after every state transition.
func WithOnChange(fn func(Status)) Option {
	return func(ld *Loader) { ld.onChange = fn }
}

// Loader fetches collections for one view and remembers their latest status.
type Loader struct {
	fetch  Fetcher
	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu     sync.RWMutex
	states map[string]Status
	closed bool

	onChange func(Status)
	log      zerolog.Logger
}

// NewLoader returns a loader whose fetches are bound to parent.
func NewLoader(parent context.Context, f Fetcher, opts ...Option) *Loader {
	ctx, cancel := context.WithCancel(parent)
	l := &Loader{
		fetch:  f,
		ctx:    ctx,
		cancel: cancel,
		states: make(map[string]Status),
		log:    log.Logger,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load returns the named collection. Concurrent calls for the same name share
// one request. ctx bounds only the caller's wait; the shared request runs
// until it completes or the loader is closed.
func (l *Loader) Load(ctx context.Context, name string) (types.Collection, error) {
	if err := types.ValidateCollectionName(name); err != nil {
		return types.Collection{}, err
	}
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return types.Collection{}, ErrClosed
	}

	ch := l.group.DoChan(name, func() (any, error) {
		return l.fetchOne(name)
	})
	select {
	case <-ctx.Done():
		return types.Collection{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return types.Collection{}, r.Err
		}
		return r.Val.(types.Collection), nil
	}
}

// LoadAll loads every name in parallel and waits for all of them. The result
// joins the per-collection errors; successful loads are unaffected by failures.
func (l *Loader) LoadAll(ctx context.Context, names ...string) error {
	errs := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			_, errs[i] = l.Load(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Status returns the latest status for name; Idle if it was never requested.
func (l *Loader) Status(name string) Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.states[name]
	if !ok {
		return Status{Name: name, State: Idle}
	}
	return st
}

// Statuses returns the status of every requested collection.
func (l *Loader) Statuses() map[string]Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]Status, len(l.states))
	for k, v := range l.states {
		out[k] = v
	}
	return out
}

// Close cancels in-flight fetches. Results that arrive afterwards are dropped.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.onChange = nil
	l.mu.Unlock()
	l.cancel()
}

// fetchOne runs inside the flight for name. Only the flight marks the name
// Loading, so the mark is always cleared by the same flight.
func (l *Loader) fetchOne(name string) (types.Collection, error) {
	if err := l.markLoading(name); err != nil {
		return types.Collection{}, err
	}
	start := time.Now()
	c, err := l.fetch.FetchCollection(l.ctx, name)
	loadDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err == nil {
		c, err = l.normalize(name, c)
	}
	if err != nil {
		err = classify(name, err)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		loadsTotal.WithLabelValues(name, "discarded").Inc()
		return types.Collection{}, ErrClosed
	}
	st := l.states[name]
	st.Name = name
	st.UpdatedAt = time.Now()
	if err != nil {
		st.State = Failed
		st.Err = err
		loadsTotal.WithLabelValues(name, "failed").Inc()
		l.log.Warn().Err(err).Str("collection", name).Msg("collection: load failed")
	} else {
		st.State = Ready
		st.Err = nil
		st.Collection = c
		loadsTotal.WithLabelValues(name, "ready").Inc()
		l.log.Debug().Str("collection", name).Int("items", len(c.Movies)).Dur("elapsed", time.Since(start)).Msg("collection: loaded")
	}
	l.states[name] = st
	hook := l.onChange
	l.mu.Unlock()

	if hook != nil {
		hook(st)
	}
	return c, err
}

func (l *Loader) markLoading(name string) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	st := l.states[name]
	st.Name = name
	st.State = Loading
	l.states[name] = st
	hook := l.onChange
	l.mu.Unlock()

	if hook != nil {
		hook(st)
	}
	return nil
}

// normalize enforces unique ids and rejects items without one.
func (l *Loader) normalize(name string, c types.Collection) (types.Collection, error) {
	c.Name = name
	seen := make(map[types.MovieID]struct{}, len(c.Movies))
	movies := make([]types.Movie, 0, len(c.Movies))
	for i, m := range c.Movies {
		if m.ID <= 0 {
			return types.Collection{}, fmt.Errorf("%w: item %d has no movie id", clienterrors.ErrMalformedPayload, i)
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		movies = append(movies, m)
	}
	if dropped := len(c.Movies) - len(movies); dropped > 0 {
		duplicatesDropped.WithLabelValues(name).Add(float64(dropped))
		l.log.Debug().Str("collection", name).Int("dropped", dropped).Msg("collection: dropped duplicate items")
	}
	c.Movies = movies
	return c, nil
}

func classify(name string, err error) error {
	kind := clienterrors.ErrCollectionUnavailable
	switch {
	case errors.Is(err, clienterrors.ErrMalformedPayload):
		kind = clienterrors.ErrMalformedPayload
	case errors.Is(err, clienterrors.ErrAuthRequired):
		kind = clienterrors.ErrAuthRequired
	}
	return &CollectionError{Collection: name, Kind: kind, Err: err}
}
