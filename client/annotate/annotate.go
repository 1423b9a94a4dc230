// Package annotate joins collections with the user's preferences.
package annotate

import "github.com/Adam14b/recsys-project/client/internal/types"

// Lookup answers the current preference for a movie. prefstore.Snapshot and
// prefstore.Store both satisfy it.
type Lookup interface {
	Get(id types.MovieID) types.Preference
}

// Annotate pairs every movie of c with its preference, preserving order.
// Movies without a stored preference get None.
func Annotate(c types.Collection, l Lookup) []types.AnnotatedMovie {
	return AnnotateMovies(c.Movies, l)
}

// AnnotateMovies is Annotate for a bare movie list.
func AnnotateMovies(movies []types.Movie, l Lookup) []types.AnnotatedMovie {
	out := make([]types.AnnotatedMovie, len(movies))
	for i, m := range movies {
		out[i] = types.AnnotatedMovie{Movie: m, Preference: l.Get(m.ID)}
	}
	return out
}
