package prefstore

import (
	"sort"

	"github.com/Adam14b/recsys-project/client/internal/types"
)

// Snapshot is an immutable view of the store at one version.
type Snapshot struct {
	prefs   map[types.MovieID]types.Preference
	version uint64
}

// Get returns the preference for id, None when absent.
func (s Snapshot) Get(id types.MovieID) types.Preference {
	return s.prefs[id]
}

// Len is the number of stored (non-None) preferences.
func (s Snapshot) Len() int { return len(s.prefs) }

// Version increases on every change to the store.
func (s Snapshot) Version() uint64 { return s.version }

// Records lists the stored preferences ordered by movie id.
func (s Snapshot) Records() []types.PreferenceRecord {
	out := make([]types.PreferenceRecord, 0, len(s.prefs))
	for id, v := range s.prefs {
		out = append(out, types.PreferenceRecord{MovieID: id, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MovieID < out[j].MovieID })
	return out
}
