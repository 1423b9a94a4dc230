package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Adam14b/recsys-project/client/collection"
	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/types"
	"github.com/Adam14b/recsys-project/client/mutation"
	"github.com/Adam14b/recsys-project/client/prefstore"
)

// Remote is everything a session needs from the remote services.
type Remote interface {
	prefstore.Source
	collection.Fetcher
	mutation.Remote
}

// NoticeKind classifies a session notice.
type NoticeKind string

const (
	NoticeRejected   NoticeKind = "rejected"
	NoticeDegraded   NoticeKind = "degraded"
	NoticeLoadFailed NoticeKind = "load-failed"
)

// Notice is a non-blocking message for the user.
type Notice struct {
	Kind       NoticeKind
	Collection string
	MovieID    types.MovieID
	Message    string
	Err        error
	At         time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithHomeLimit sets the number of items per home grid; <= 0 shows everything.
func WithHomeLimit(n int) SessionOption {
	return func(s *Session) { s.homeLimit = n }
}

// WithLogger sets the logger shared by the session components.
func WithLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithAuthenticator installs the signed-in predicate consulted before
// hydration and mutations.
func WithAuthenticator(fn func(context.Context) bool) SessionOption {
	return func(s *Session) { s.authenticated = fn }
}

// WithOnAuthRequired installs the hook fired when the user must sign in.
func WithOnAuthRequired(fn func()) SessionOption {
	return func(s *Session) { s.onAuthRequired = fn }
}

// WithOnClose registers fn to run once when the session closes. Hooks run
// after the session's components are discarded, in registration order.
func WithOnClose(fn func(*Session)) SessionOption {
	return func(s *Session) { s.onClose = append(s.onClose, fn) }
}

// Session is one view instance. It owns a preference store, a collection
// loader and a mutation coordinator, and discards all of them on Close.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	remote Remote
	store  *prefstore.Store
	loader *collection.Loader
	coord  *mutation.Coordinator

	homeLimit      int
	authenticated  func(context.Context) bool
	onAuthRequired func()
	onClose        []func(*Session)
	log            zerolog.Logger

	hydrateOnce sync.Once
	wg          sync.WaitGroup

	mu      sync.Mutex
	notices []Notice
	updates chan struct{}
	closed  bool
}

// NewSession opens a view session. exec runs the remote mutations and is not
// owned by the session.
func NewSession(parent context.Context, remote Remote, exec types.Executor, opts ...SessionOption) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		id:        uuid.NewString(),
		ctx:       ctx,
		cancel:    cancel,
		remote:    remote,
		homeLimit: DefaultHomeLimit,
		log:       log.Logger,
		updates:   make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("session", s.id).Logger()

	s.store = prefstore.New(
		prefstore.WithLogger(s.log),
		prefstore.WithOnChange(func(prefstore.Snapshot) { s.signal() }),
		prefstore.WithOnLocalKept(func(server []types.PreferenceRecord) { s.coord.Reconcile(server) }),
	)
	s.loader = collection.NewLoader(ctx, remote,
		collection.WithLogger(s.log),
		collection.WithOnChange(func(collection.Status) { s.signal() }),
	)
	s.coord = mutation.New(ctx, s.store, remote, exec,
		mutation.WithLogger(s.log),
		mutation.WithOnRejection(s.onRejection),
	)
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Start hydrates preferences (once per session) and loads the named
// collections, all concurrently. With no names the home collections load.
func (s *Session) Start(names ...string) {
	if len(names) == 0 {
		names = HomeCollections
	}
	s.hydrateOnce.Do(func() {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if !s.isAuthenticated() {
				s.log.Debug().Msg("view: anonymous session, skipping preference hydration")
				return
			}
			s.store.Hydrate(s.ctx, s.remote)
		}()
	})
	for _, name := range names {
		name := name
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.load(name)
		}()
	}
}

// Wait blocks until everything started so far has finished.
func (s *Session) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Updates signals that a projection may have changed. Signals coalesce; the
// channel is closed by Close.
func (s *Session) Updates() <-chan struct{} { return s.updates }

// Notices returns and clears the pending notices.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// Like toggles Like on id.
func (s *Session) Like(id types.MovieID) *mutation.Ticket {
	if t := s.refuseAnonymous(id); t != nil {
		return t
	}
	return s.coord.Like(id)
}

// Dislike toggles Dislike on id.
func (s *Session) Dislike(id types.MovieID) *mutation.Ticket {
	if t := s.refuseAnonymous(id); t != nil {
		return t
	}
	return s.coord.Dislike(id)
}

// Unlike clears the preference on id.
func (s *Session) Unlike(id types.MovieID) *mutation.Ticket {
	if t := s.refuseAnonymous(id); t != nil {
		return t
	}
	return s.coord.Unlike(id)
}

// Preference returns the displayed preference for id.
func (s *Session) Preference(id types.MovieID) types.Preference { return s.store.Get(id) }

// MutationState reports whether id has mutations in flight.
func (s *Session) MutationState(id types.MovieID) (mutation.State, types.Preference) {
	return s.coord.State(id)
}

// Collection returns the load status of one collection.
func (s *Session) Collection(name string) collection.Status { return s.loader.Status(name) }

// Home composes the home page from the latest state.
func (s *Session) Home() Home {
	return ComposeHome(s.loader.Statuses(), s.store.Snapshot(), s.homeLimit)
}

// Recommendations composes the recommendations page from the latest state.
func (s *Session) Recommendations() Recommendations {
	return ComposeRecommendations(s.loader.Statuses(), s.store.Snapshot())
}

// MyRatings composes the ratings page from the latest state.
func (s *Session) MyRatings() MyRatings {
	return ComposeMyRatings(s.loader.Statuses(), s.store.Snapshot())
}

// Close cancels in-flight work and discards the store. Outcomes that arrive
// afterwards are ignored. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.updates)
	s.mu.Unlock()

	s.coord.Close()
	s.loader.Close()
	s.cancel()
	s.store.Discard()
	s.log.Debug().Msg("view: session closed")
	for _, fn := range s.onClose {
		fn(s)
	}
}

func (s *Session) load(name string) {
	c, err := s.loader.Load(s.ctx, name)
	switch {
	case err == nil:
		if c.Notice != "" {
			s.notify(Notice{Kind: NoticeDegraded, Collection: name, Message: c.Notice})
		}
	case errors.Is(err, collection.ErrClosed), errors.Is(err, context.Canceled):
	case errors.Is(err, clienterrors.ErrAuthRequired):
		s.authRequired()
	default:
		s.notify(Notice{Kind: NoticeLoadFailed, Collection: name, Message: "could not load " + name, Err: err})
	}
}

func (s *Session) onRejection(r mutation.Rejection) {
	if errors.Is(r.Err, clienterrors.ErrAuthRequired) {
		s.authRequired()
	}
	s.notify(Notice{
		Kind:    NoticeRejected,
		MovieID: r.MovieID,
		Message: "could not save rating for movie " + r.MovieID.String(),
		Err:     r.Err,
		At:      r.At,
	})
}

func (s *Session) refuseAnonymous(id types.MovieID) *mutation.Ticket {
	if s.isAuthenticated() {
		return nil
	}
	s.authRequired()
	return mutation.Refused(id, clienterrors.ErrAuthRequired)
}

func (s *Session) isAuthenticated() bool {
	if s.authenticated == nil {
		return true
	}
	return s.authenticated(s.ctx)
}

func (s *Session) authRequired() {
	s.log.Debug().Msg("view: sign-in required")
	if s.onAuthRequired != nil {
		s.onAuthRequired()
	}
}

func (s *Session) notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.notices = append(s.notices, n)
	s.mu.Unlock()
	s.signal()
}

func (s *Session) signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
