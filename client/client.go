// Package client is the SDK for the movie recommendation service.
//
// A Client holds the cookie session and the transport stack; a view.Session
// opened from it keeps one page's collections and preferences in sync.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Adam14b/recsys-project/client/internal/api"
	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/shardqueue"
	"github.com/Adam14b/recsys-project/client/view"
)

// authentication state as last observed by the client
const (
	authUnknown int32 = iota
	authSignedIn
	authAnonymous
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

type Client struct {
	baseURL string
	http    *http.Client
	exec    executor
	log     zerolog.Logger

	debug          bool
	limiter        *rate.Limiter
	breakerConfig  *BreakerConfig
	homeLimit      int
	onAuthRequired func()

	auth int32

	mu       sync.Mutex
	sessions map[*view.Session]struct{}

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client for the service at baseURL.
// Additional options can be provided via functional arguments.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second, Jar: jar},
		log:       log.Logger,
		homeLimit: view.DefaultHomeLimit,
		sessions:  make(map[*view.Session]struct{}),
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.http.Jar == nil {
		c.http.Jar = jar
	}
	// Protected endpoints redirect anonymous callers to the login page; the
	// redirect itself is the signal.
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	c.wrapTransport()

	if c.exec == nil {
		exec, err := newDefaultExecutor()
		if err != nil {
			return nil, err
		}
		c.exec = exec
	}
	return c, nil
}

// wrapTransport installs, from the outside in: debug dump, circuit breaker,
// rate limiter, then the base transport.
func (c *Client) wrapTransport() {
	t := c.http.Transport
	if t == nil {
		t = http.DefaultTransport
	}
	if c.limiter != nil {
		t = &rateLimitTransport{base: t, limiter: c.limiter}
	}
	if c.breakerConfig != nil {
		t = newBreakerTransport(t, *c.breakerConfig)
	}
	if c.debug {
		t = &debugTransport{base: t}
	}
	c.http.Transport = t
}

// newDefaultExecutor builds the mutation executor from SQ_* variables.
func newDefaultExecutor() (*shardqueue.ShardExecutor, error) {
	cfg, err := shardqueue.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load executor config: %w", err)
	}
	return shardqueue.NewShardExecutor(cfg), nil
}

// Close closes every open session and stops the executor. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	c.mu.Lock()
	sessions := make([]*view.Session, 0, len(c.sessions))
	for s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.sessions = nil
	c.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

// --------------------------------------------------------------------
// Sessions
// --------------------------------------------------------------------

// OpenSession opens a view session bound to ctx. Close the session when the
// view goes away; Client.Close closes any still open.
func (c *Client) OpenSession(ctx context.Context, opts ...view.SessionOption) (*view.Session, error) {
	if atomic.LoadUint32(&c.closedOnce) == 1 {
		return nil, ErrClientClosed
	}
	base := []view.SessionOption{
		view.WithLogger(c.log),
		view.WithHomeLimit(c.homeLimit),
		view.WithAuthenticator(c.authenticated),
		view.WithOnAuthRequired(c.authRequired),
		view.WithOnClose(c.forgetSession),
	}
	s := view.NewSession(ctx, remote{c}, c.exec, append(base, opts...)...)

	c.mu.Lock()
	if c.sessions == nil {
		c.mu.Unlock()
		s.Close()
		return nil, ErrClientClosed
	}
	c.sessions[s] = struct{}{}
	c.mu.Unlock()
	return s, nil
}

// CloseSession closes s. Equivalent to s.Close(); sessions opened by the
// client deregister themselves however they are closed.
func (c *Client) CloseSession(s *view.Session) {
	s.Close()
}

func (c *Client) forgetSession(s *view.Session) {
	c.mu.Lock()
	delete(c.sessions, s)
	c.mu.Unlock()
}

// authenticated is the session predicate. An unknown state counts as signed
// in and lets the server decide.
func (c *Client) authenticated(context.Context) bool {
	return atomic.LoadInt32(&c.auth) != authAnonymous
}

func (c *Client) authRequired() {
	atomic.StoreInt32(&c.auth, authAnonymous)
	if c.onAuthRequired != nil {
		c.onAuthRequired()
	}
}

// observe records auth failures seen on any call.
func (c *Client) observe(err error) error {
	if err != nil && IsAuthRequired(err) {
		atomic.StoreInt32(&c.auth, authAnonymous)
	}
	return err
}

// --------------------------------------------------------------------
// Auth operations - delegated to internal/api
// --------------------------------------------------------------------

// Login signs in; the session cookie is kept for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if err := api.Login(ctx, c.http, c.baseURL, Credentials{Username: username, Password: password}); err != nil {
		return c.observe(err)
	}
	atomic.StoreInt32(&c.auth, authSignedIn)
	return nil
}

// Register creates an account without signing in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return api.Register(ctx, c.http, c.baseURL, req)
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	err := api.Logout(ctx, c.http, c.baseURL)
	if err == nil || clienterrors.IsIrrecoverable(err) {
		atomic.StoreInt32(&c.auth, authAnonymous)
	}
	if IsAuthRequired(err) {
		return nil
	}
	return err
}

// IsAuthenticated asks the server whether the session is signed in.
func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	ok, err := api.CheckAuth(ctx, c.http, c.baseURL)
	if err != nil {
		return false, err
	}
	if ok {
		atomic.StoreInt32(&c.auth, authSignedIn)
	} else {
		atomic.StoreInt32(&c.auth, authAnonymous)
	}
	return ok, nil
}

// --------------------------------------------------------------------
// Account operations - delegated to internal/api
// --------------------------------------------------------------------

// Profile returns the signed-in account.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	p, err := api.GetProfile(ctx, c.http, c.baseURL)
	return p, c.observe(err)
}

// GetSettings returns the recommendation settings.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	s, err := api.GetSettings(ctx, c.http, c.baseURL)
	return s, c.observe(err)
}

// UpdateSettings applies a partial settings update.
func (c *Client) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) error {
	return c.observe(api.UpdateSettings(ctx, c.http, c.baseURL, req))
}

// --------------------------------------------------------------------
// Preference and collection operations - delegated to internal/api
// --------------------------------------------------------------------

// ListPreferences returns every stored preference.
func (c *Client) ListPreferences(ctx context.Context) ([]PreferenceRecord, error) {
	recs, err := api.ListPreferences(ctx, c.http, c.baseURL)
	return recs, c.observe(err)
}

// SetPreference stores Like or Dislike synchronously, bypassing any session.
func (c *Client) SetPreference(ctx context.Context, id MovieID, value Preference) error {
	return c.observe(api.SetPreference(ctx, c.http, c.baseURL, id, value))
}

// ClearPreference removes a stored preference synchronously. Clearing an
// absent preference succeeds.
func (c *Client) ClearPreference(ctx context.Context, id MovieID) error {
	return c.observe(api.ClearPreference(ctx, c.http, c.baseURL, id))
}

// FetchCollection loads a named collection: popular, new or recommended.
func (c *Client) FetchCollection(ctx context.Context, name string) (Collection, error) {
	col, err := api.FetchCollection(ctx, c.http, c.baseURL, name)
	return col, c.observe(err)
}

// remote adapts the Client to view.Remote.
type remote struct{ c *Client }

func (r remote) ListPreferences(ctx context.Context) ([]PreferenceRecord, error) {
	return r.c.ListPreferences(ctx)
}

func (r remote) FetchCollection(ctx context.Context, name string) (Collection, error) {
	return r.c.FetchCollection(ctx, name)
}

func (r remote) SetPreference(ctx context.Context, id MovieID, value Preference) error {
	return r.c.SetPreference(ctx, id, value)
}

func (r remote) ClearPreference(ctx context.Context, id MovieID) error {
	return r.c.ClearPreference(ctx, id)
}
