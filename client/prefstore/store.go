// Package prefstore holds the active user's movie preferences for one view.
//
// The store is hydrated once from the remote preference service and then
// mutated locally by the mutation coordinator. Readers take immutable
// snapshots; the store never blocks on I/O while holding its lock.
package prefstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/types"
)

// Source fetches the authoritative preferences of the signed-in user.
type Source interface {
	ListPreferences(ctx context.Context) ([]types.PreferenceRecord, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context) ([]types.PreferenceRecord, error)

func (f SourceFunc) ListPreferences(ctx context.Context) ([]types.PreferenceRecord, error) {
	return f(ctx)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for hydration diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithOnChange registers a hook invoked after every change with the new snapshot.
// The hook runs outside the store lock and may be called from any goroutine.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *Store) { s.onChange = fn }
}

// WithOnLocalKept registers a hook invoked after a successful hydration with
// the server's value (None when it has no record) for every id whose local
// value was kept over it. The hook runs outside the store lock.
func WithOnLocalKept(fn func(server []types.PreferenceRecord)) Option {
	return func(s *Store) { s.onLocalKept = fn }
}

// Store maps movie ids to the user's preference. None is never stored.
type Store struct {
	mu      sync.RWMutex
	prefs   map[types.MovieID]types.Preference
	version uint64

	// touched records ids applied locally before the first hydration finished.
	touched   map[types.MovieID]struct{}
	hydrated  bool
	discarded bool

	onChange    func(Snapshot)
	onLocalKept func([]types.PreferenceRecord)
	log         zerolog.Logger
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		prefs:   make(map[types.MovieID]types.Preference),
		touched: make(map[types.MovieID]struct{}),
		log:     log.Logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Hydrate replaces the mapping with the remote one. It never fails: on any
// error, including a missing session, the current mapping is kept and returned.
// Ids applied locally before hydration finished keep their local value.
func (s *Store) Hydrate(ctx context.Context, src Source) Snapshot {
	records, err := src.ListPreferences(ctx)
	if err != nil {
		switch {
		case errors.Is(err, clienterrors.ErrAuthRequired):
			s.log.Debug().Msg("prefstore: not signed in, preferences empty")
		case errors.Is(err, context.Canceled):
			s.log.Debug().Msg("prefstore: hydration canceled")
		default:
			s.log.Warn().Err(fmt.Errorf("%w: %w", clienterrors.ErrPreferenceLoadFailed, err)).Msg("prefstore: hydration failed, continuing with local preferences")
		}
		s.mu.Lock()
		s.hydrated = true
		s.touched = nil
		s.mu.Unlock()
		return s.Snapshot()
	}

	s.mu.Lock()
	if s.discarded {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	next := make(map[types.MovieID]types.Preference, len(records))
	skipped := 0
	for _, r := range records {
		if r.MovieID <= 0 || types.ValidateRating(r.Value) != nil {
			skipped++
			continue
		}
		next[r.MovieID] = r.Value
	}
	kept := make([]types.PreferenceRecord, 0, len(s.touched))
	for id := range s.touched {
		kept = append(kept, types.PreferenceRecord{MovieID: id, Value: next[id]})
		if v, ok := s.prefs[id]; ok {
			next[id] = v
		} else {
			delete(next, id)
		}
	}
	s.prefs = next
	s.touched = nil
	s.hydrated = true
	s.version++
	snap := s.snapshotLocked()
	hook, keptHook := s.onChange, s.onLocalKept
	s.mu.Unlock()

	if skipped > 0 {
		s.log.Warn().Int("skipped", skipped).Msg("prefstore: ignored invalid preference records")
	}
	s.log.Debug().Int("count", snap.Len()).Msg("prefstore: hydrated")
	if hook != nil {
		hook(snap)
	}
	if keptHook != nil && len(kept) > 0 {
		sort.Slice(kept, func(i, j int) bool { return kept[i].MovieID < kept[j].MovieID })
		keptHook(kept)
	}
	return snap
}

// Get returns the preference for id, None when absent.
func (s *Store) Get(id types.MovieID) types.Preference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs[id]
}

// Apply sets the preference for id. None deletes the record. Calls are
// serialized; the last one wins. Apply on a discarded store is a no-op.
func (s *Store) Apply(id types.MovieID, value types.Preference) {
	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()
		return
	}
	if s.touched != nil {
		s.touched[id] = struct{}{}
	}
	cur, ok := s.prefs[id]
	if (value == types.None && !ok) || (ok && cur == value) {
		s.mu.Unlock()
		return
	}
	if value == types.None {
		delete(s.prefs, id)
	} else {
		s.prefs[id] = value
	}
	s.version++
	snap := s.snapshotLocked()
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
}

// Snapshot returns an immutable copy of the current mapping.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Hydrated reports whether a hydration attempt has finished.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Discard ends the store's life. Later Apply and Hydrate results are ignored.
func (s *Store) Discard() {
	s.mu.Lock()
	s.discarded = true
	s.onChange = nil
	s.onLocalKept = nil
	s.mu.Unlock()
}

func (s *Store) snapshotLocked() Snapshot {
	cp := make(map[types.MovieID]types.Preference, len(s.prefs))
	for id, v := range s.prefs {
		cp[id] = v
	}
	return Snapshot{prefs: cp, version: s.version}
}
