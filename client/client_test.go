package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adam14b/recsys-project/client/internal/shardqueue"
	"github.com/Adam14b/recsys-project/devmode"
	"github.com/Adam14b/recsys-project/internal/devbackend"
)

type stubExec struct{ stops int }

func (s *stubExec) Submit(context.Context, string, shardqueue.Job) error { return nil }
func (s *stubExec) Stop()                                                { s.stops++ }

func newDevClient(t *testing.T, opts ...Option) (*Client, *devbackend.Server) {
	t.Helper()
	backend := devbackend.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, backend
}

func TestNew_RejectsEmptyURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty baseURL")
	}
}

func TestIsBackPressure(t *testing.T) {
	if !IsBackPressure(&shardqueue.QueueFullError{}) {
		t.Fatalf("expected back pressure")
	}
	if IsBackPressure(errors.New("other")) {
		t.Fatalf("unexpected back pressure detection")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := &stubExec{}
	c, err := New("http://example.com", WithExecutor(s))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if s.stops != 1 {
		t.Fatalf("executor stop called %d times", s.stops)
	}
	if _, err := c.OpenSession(context.Background()); !errors.Is(err, ErrClientClosed) {
		t.Fatalf("expected ErrClientClosed, got %v", err)
	}
}

func openSessions(c *Client) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func TestSession_DirectCloseDeregisters(t *testing.T) {
	c, _ := newDevClient(t)

	a, err := c.OpenSession(context.Background())
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	b, err := c.OpenSession(context.Background())
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if n := openSessions(c); n != 2 {
		t.Fatalf("open sessions = %d, want 2", n)
	}

	a.Close()
	if n := openSessions(c); n != 1 {
		t.Fatalf("open sessions after Session.Close = %d, want 1", n)
	}
	c.CloseSession(b)
	if n := openSessions(c); n != 0 {
		t.Fatalf("open sessions after CloseSession = %d, want 0", n)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAuthFlow(t *testing.T) {
	c, _ := newDevClient(t)
	ctx := context.Background()

	if ok, err := c.IsAuthenticated(ctx); err != nil || ok {
		t.Fatalf("anonymous: ok=%v err=%v", ok, err)
	}
	if _, err := c.Profile(ctx); !IsAuthRequired(err) {
		t.Fatalf("expected auth required, got %v", err)
	}
	if err := c.Login(ctx, devmode.Username, "wrong"); !IsAuthRequired(err) {
		t.Fatalf("expected auth required for bad password, got %v", err)
	}
	if err := c.Login(ctx, devmode.Username, devmode.Password); err != nil {
		t.Fatalf("Login: %v", err)
	}
	p, err := c.Profile(ctx)
	if err != nil || p.Username != devmode.Username {
		t.Fatalf("Profile: p=%+v err=%v", p, err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if ok, _ := c.IsAuthenticated(ctx); ok {
		t.Fatal("still authenticated after logout")
	}
}

func TestRegisterAndSettings(t *testing.T) {
	c, _ := newDevClient(t)
	ctx := context.Background()

	if err := c.Register(ctx, RegisterRequest{Username: "neo", Email: "neo@zion", Password: "p"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := c.Login(ctx, "neo", "p"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	algo := AlgorithmCollaborative
	w := 0.25
	if err := c.UpdateSettings(ctx, UpdateSettingsRequest{Algorithm: &algo, ContentWeight: &w}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	s, err := c.GetSettings(ctx)
	if err != nil || s.Algorithm != AlgorithmCollaborative || s.ContentWeight != 0.25 {
		t.Fatalf("GetSettings: s=%+v err=%v", s, err)
	}
}

func TestSession_EndToEnd(t *testing.T) {
	c, _ := newDevClient(t)
	ctx := context.Background()
	if err := c.Login(ctx, devmode.Username, devmode.Password); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := c.SetPreference(ctx, 155, Dislike); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}

	s, err := c.OpenSession(ctx)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	defer c.CloseSession(s)
	s.Start(CollectionPopular, CollectionNew, CollectionRecommended)
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Wait(wctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	home := s.Home()
	pop, ok := home.Grid(CollectionPopular)
	if !ok || len(pop.Items) != 10 {
		t.Fatalf("popular grid: %+v", pop)
	}
	if pop.Items[1].ID != 155 || pop.Items[1].Preference != Dislike {
		t.Fatalf("hydrated preference not annotated: %+v", pop.Items[1])
	}

	if err := s.Like(603).Wait(wctx); err != nil {
		t.Fatalf("Like: %v", err)
	}
	recs, err := c.ListPreferences(ctx)
	if err != nil {
		t.Fatalf("ListPreferences: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 stored preferences, got %+v", recs)
	}

	// Liking again toggles back to none.
	if err := s.Like(603).Wait(wctx); err != nil {
		t.Fatalf("second Like: %v", err)
	}
	if got := s.Preference(603); got != None {
		t.Fatalf("toggle: got %v", got)
	}

	r := s.MyRatings()
	if len(r.Liked) != 0 || len(r.Disliked) != 1 || r.Disliked[0].ID != 155 {
		t.Fatalf("MyRatings: %+v", r)
	}
}

func TestSession_RejectedMutationRollsBack(t *testing.T) {
	c, backend := newDevClient(t)
	ctx := context.Background()
	if err := c.Login(ctx, devmode.Username, devmode.Password); err != nil {
		t.Fatalf("Login: %v", err)
	}
	s, err := c.OpenSession(ctx)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	defer c.CloseSession(s)
	s.Start()
	_ = s.Wait(ctx)

	backend.InjectFault("/api/like", http.StatusBadRequest, 1)
	err = s.Like(7).Wait(ctx)
	if !errors.Is(err, ErrMutationRejected) {
		t.Fatalf("expected ErrMutationRejected, got %v", err)
	}
	if got := s.Preference(7); got != None {
		t.Fatalf("expected rollback to none, got %v", got)
	}
	if n := s.Notices(); len(n) != 1 {
		t.Fatalf("expected one notice, got %+v", n)
	}
}

func TestSession_AnonymousLikeFiresHook(t *testing.T) {
	redirected := make(chan struct{}, 4)
	c, _ := newDevClient(t, WithOnAuthRequired(func() { redirected <- struct{}{} }))
	ctx := context.Background()

	s, err := c.OpenSession(ctx)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	defer c.CloseSession(s)
	s.Start()
	_ = s.Wait(ctx)

	// Hydration was redirected, so the client already knows it is anonymous.
	if err := s.Like(603).Wait(ctx); !IsAuthRequired(err) {
		t.Fatalf("expected auth required, got %v", err)
	}
	select {
	case <-redirected:
	case <-time.After(time.Second):
		t.Fatal("auth hook not fired")
	}
	if err := s.Dislike(603).Wait(ctx); !IsAuthRequired(err) {
		t.Fatalf("expected local refusal, got %v", err)
	}
}
