package devbackend

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	errUserExists  = errors.New("user or email already exists")
	errBadLogin    = errors.New("invalid credentials")
	errNoSuchLike  = errors.New("rating not found")
	errNoSuchToken = errors.New("no such session")
)

type user struct {
	id         int
	username   string
	email      string
	password   string
	dateJoined time.Time
}

// Settings is the per-user recommendation configuration.
type Settings struct {
	Algorithm           string  `json:"recommendation_algorithm"`
	ContentWeight       float64 `json:"content_weight"`
	CollaborativeWeight float64 `json:"collaborative_weight"`
}

func defaultSettings() Settings {
	return Settings{Algorithm: "hybrid", ContentWeight: 0.6, CollaborativeWeight: 0.4}
}

// store is the in-memory state of the dev backend. Passwords are kept in
// clear text; the backend is for local use only.
type store struct {
	mu       sync.RWMutex
	catalog  []Movie
	byID     map[int]Movie
	users    map[string]*user
	nextUser int
	sessions map[string]int
	likes    map[int]map[int]int
	settings map[int]Settings
}

func newStore(catalog []Movie) *store {
	s := &store{
		catalog:  catalog,
		byID:     make(map[int]Movie, len(catalog)),
		users:    make(map[string]*user),
		nextUser: 1,
		sessions: make(map[string]int),
		likes:    make(map[int]map[int]int),
		settings: make(map[int]Settings),
	}
	for _, m := range catalog {
		s.byID[m.TMDBID] = m
	}
	return s
}

func (s *store) register(username, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return errUserExists
	}
	for _, u := range s.users {
		if strings.EqualFold(u.email, email) {
			return errUserExists
		}
	}
	s.users[username] = &user{id: s.nextUser, username: username, email: email, password: password, dateJoined: time.Now().UTC()}
	s.nextUser++
	return nil
}

func (s *store) login(username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok || u.password != password {
		return "", errBadLogin
	}
	token := uuid.NewString()
	s.sessions[token] = u.id
	return token, nil
}

func (s *store) logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *store) userForToken(token string) (*user, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[token]
	if !ok {
		return nil, errNoSuchToken
	}
	for _, u := range s.users {
		if u.id == id {
			return u, nil
		}
	}
	return nil, errNoSuchToken
}

func (s *store) setLike(userID, tmdbID, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.likes[userID]
	if !ok {
		m = make(map[int]int)
		s.likes[userID] = m
	}
	m[tmdbID] = value
}

func (s *store) deleteLike(userID, tmdbID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.likes[userID][tmdbID]; !ok {
		return errNoSuchLike
	}
	delete(s.likes[userID], tmdbID)
	return nil
}

// likeRow is one stored opinion as served by /api/user-likes.
type likeRow struct {
	TMDBID int `json:"tmdb_id"`
	Value  int `json:"value"`
}

func (s *store) userLikes(userID int) []likeRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]likeRow, 0, len(s.likes[userID]))
	for id, v := range s.likes[userID] {
		out = append(out, likeRow{TMDBID: id, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TMDBID < out[j].TMDBID })
	return out
}

func (s *store) userSettings(userID int) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		st = defaultSettings()
		s.settings[userID] = st
	}
	return st
}

func (s *store) updateSettings(userID int, fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		st = defaultSettings()
	}
	fn(&st)
	s.settings[userID] = st
}

// popular returns the catalog ordered by popularity.
func (s *store) popular() []Movie {
	out := append([]Movie(nil), s.catalog...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Popularity > out[j].Popularity })
	return out
}

// newest returns the catalog ordered by release date, newest first.
func (s *store) newest() []Movie {
	out := make([]Movie, 0, len(s.catalog))
	for _, m := range s.catalog {
		if m.ReleaseDate != nil {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].ReleaseDate > *out[j].ReleaseDate })
	return out
}
