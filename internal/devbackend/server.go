// Package devbackend is an in-memory implementation of the recommendation
// service API for local development and tests.
//
// It serves the same routes and payload shapes as the production service:
// cookie sessions, protected routes that redirect anonymous callers to the
// login page, and the preference, collection and settings endpoints.
package devbackend

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/Adam14b/recsys-project/devmode"
)

const sessionCookie = "session"

// Server is the dev backend. Use Handler to mount it.
type Server struct {
	store  *store
	router *mux.Router

	mu       sync.Mutex
	faults   map[string]*fault
	degraded bool
}

type fault struct {
	status    int
	remaining int
}

// Option configures a Server.
type Option func(*Server)

// WithCatalog replaces the default catalog.
func WithCatalog(movies []Movie) Option {
	return func(s *Server) { s.store = newStore(movies) }
}

// New builds a server with the dev user already registered.
func New(opts ...Option) *Server {
	s := &Server{
		store:  newStore(DefaultCatalog()),
		faults: make(map[string]*fault),
	}
	for _, o := range opts {
		o(s)
	}
	_ = s.store.register(devmode.Username, devmode.Email, devmode.Password)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// InjectFault makes the next count requests to path answer status.
func (s *Server) InjectFault(path string, status, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = &fault{status: status, remaining: count}
}

// SetDegraded makes recommendations answer with the popular fallback and a
// degradation message, as the service does when its algorithm fails.
func (s *Server) SetDegraded(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = on
}

// Register adds an account, for seeding tests.
func (s *Server) Register(username, email, password string) error {
	return s.store.register(username, email, password)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware, loggingMiddleware, s.faultMiddleware)

	// Public endpoints
	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/check-auth", s.handleCheckAuth).Methods(http.MethodGet)
	r.HandleFunc("/api/popular", s.handlePopular).Methods(http.MethodGet)
	r.HandleFunc("/api/new", s.handleNew).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLoginPage).Methods(http.MethodGet)

	// Session-protected endpoints
	p := r.NewRoute().Subrouter()
	p.Use(s.requireLogin)
	p.HandleFunc("/api/logout", s.handleLogout).Methods(http.MethodPost)
	p.HandleFunc("/api/profile", s.handleProfile).Methods(http.MethodGet)
	p.HandleFunc("/api/like", s.handleLike).Methods(http.MethodPost)
	p.HandleFunc("/api/unlike", s.handleUnlike).Methods(http.MethodPost)
	p.HandleFunc("/api/user-likes", s.handleUserLikes).Methods(http.MethodGet)
	p.HandleFunc("/api/user-settings", s.handleGetSettings).Methods(http.MethodGet)
	p.HandleFunc("/api/user-settings", s.handleUpdateSettings).Methods(http.MethodPost)
	p.HandleFunc("/api/smart-recommendations", s.handleRecommendations).Methods(http.MethodGet)
	return r
}

// recoveryMiddleware intercepts panics from downstream handlers, logs details, and returns HTTP 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Bytes("stack", debug.Stack()).
					Msg("devbackend: panic recovered")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("elapsed", time.Since(start)).Msg("devbackend: request")
	})
}

func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.faults[r.URL.Path]
		status := 0
		if ok && f.remaining > 0 {
			f.remaining--
			status = f.status
		}
		s.mu.Unlock()
		if status != 0 {
			writeError(w, status, "injected fault")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxUser struct{}

// requireLogin redirects anonymous callers to the login page.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.currentUser(r)
		if err != nil {
			http.Redirect(w, r, "/login?next="+r.URL.Path, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

func (s *Server) currentUser(r *http.Request) (*user, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, err
	}
	return s.store.userForToken(c.Value)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusUnauthorized, "login required")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}
	if err := s.store.register(req.Username, req.Email, req.Password); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeSuccess(w, "user registered")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	token, err := s.store.login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
	writeSuccess(w, "")
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	_, err := s.currentUser(r)
	writeJSON(w, http.StatusOK, map[string]bool{"is_authenticated": err == nil})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.store.logout(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeSuccess(w, "")
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"username":    u.username,
		"email":       u.email,
		"date_joined": u.dateJoined.Format("2006-01-02 15:04:05"),
		"likes_count": len(s.store.userLikes(u.id)),
	})
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.popular())
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	movies := s.store.newest()
	if len(movies) > recommendationLimit {
		movies = movies[:recommendationLimit]
	}
	writeJSON(w, http.StatusOK, movies)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TMDBID int `json:"tmdb_id"`
		Value  int `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TMDBID == 0 || (req.Value != 1 && req.Value != -1) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	s.store.setLike(userFrom(r.Context()).id, req.TMDBID, req.Value)
	writeSuccess(w, "")
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TMDBID int `json:"tmdb_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TMDBID == 0 {
		writeError(w, http.StatusBadRequest, "movie id is required")
		return
	}
	if err := s.store.deleteLike(userFrom(r.Context()).id, req.TMDBID); err != nil {
		if errors.Is(err, errNoSuchLike) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, "rating removed")
}

func (s *Server) handleUserLikes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"likes": s.store.userLikes(userFrom(r.Context()).id)})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.userSettings(userFrom(r.Context()).id))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Algorithm           *string  `json:"recommendation_algorithm"`
		ContentWeight       *float64 `json:"content_weight"`
		CollaborativeWeight *float64 `json:"collaborative_weight"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Algorithm != nil {
		switch strings.TrimSpace(*req.Algorithm) {
		case "popular", "content", "collaborative", "hybrid":
		default:
			writeError(w, http.StatusBadRequest, "unknown algorithm")
			return
		}
	}
	s.store.updateSettings(userFrom(r.Context()).id, func(st *Settings) {
		if req.Algorithm != nil {
			st.Algorithm = strings.TrimSpace(*req.Algorithm)
		}
		if req.ContentWeight != nil {
			st.ContentWeight = *req.ContentWeight
		}
		if req.CollaborativeWeight != nil {
			st.CollaborativeWeight = *req.CollaborativeWeight
		}
	})
	writeSuccess(w, "settings saved")
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	s.mu.Lock()
	degraded := s.degraded
	s.mu.Unlock()

	if degraded {
		movies := s.store.popular()
		if len(movies) > recommendationLimit {
			movies = movies[:recommendationLimit]
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"movies":         movies,
			"algorithm_used": "popular",
			"total_count":    len(movies),
			"error":          "popular movies used because the recommendation algorithm failed",
		})
		return
	}

	st := s.store.userSettings(u.id)
	movies := s.store.recommend(u.id, st)
	writeJSON(w, http.StatusOK, map[string]any{
		"movies":         movies,
		"algorithm_used": st.Algorithm,
		"total_count":    len(movies),
	})
}
