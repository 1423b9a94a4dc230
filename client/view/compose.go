// Package view derives page projections from collection states and the
// preference store, and owns the per-view session that keeps them in sync.
package view

import (
	"sort"

	"github.com/Adam14b/recsys-project/client/annotate"
	"github.com/Adam14b/recsys-project/client/collection"
	"github.com/Adam14b/recsys-project/client/internal/types"
)

// DefaultHomeLimit is the number of items per home grid.
const DefaultHomeLimit = 10

// HomeCollections are the grids of the home page, in display order.
var HomeCollections = []string{types.CollectionPopular, types.CollectionNew}

// UnionCollections are joined by My-Ratings, in precedence order.
var UnionCollections = []string{types.CollectionPopular, types.CollectionNew, types.CollectionRecommended}

// Grid is one independently loaded collection as shown on a page. A Failed
// grid carries only Err; movies from an earlier successful load are not shown.
type Grid struct {
	Name  string
	State collection.State
	Err   error
	Items []types.AnnotatedMovie
	// Total is the collection size before truncation.
	Total int
}

// Home is the home page: one grid per home collection.
type Home struct {
	Grids []Grid
}

// Grid returns the grid named name.
func (h Home) Grid(name string) (Grid, bool) {
	for _, g := range h.Grids {
		if g.Name == name {
			return g, true
		}
	}
	return Grid{}, false
}

// AlgorithmInfo is the display form of an algorithm tag.
type AlgorithmInfo struct {
	Tag         types.Algorithm
	Name        string
	Description string
}

// Recommendations is the recommendations page.
type Recommendations struct {
	Grid
	Algorithm AlgorithmInfo
	// Notice carries a non-fatal degradation message from the server.
	Notice string
}

// Ratings is what My-Ratings needs from a preference snapshot.
type Ratings interface {
	annotate.Lookup
	Records() []types.PreferenceRecord
}

// MyRatings partitions the user's rated movies found in the fetched collections.
type MyRatings struct {
	Liked    []types.AnnotatedMovie
	Disliked []types.AnnotatedMovie
	// Missing lists rated ids absent from every fetched collection.
	Missing []types.MovieID
}

// ComposeHome builds the home grids. Each grid carries its own state; a failed
// grid never affects another. limit <= 0 disables truncation.
func ComposeHome(statuses map[string]collection.Status, l annotate.Lookup, limit int) Home {
	h := Home{Grids: make([]Grid, 0, len(HomeCollections))}
	for _, name := range HomeCollections {
		h.Grids = append(h.Grids, composeGrid(name, statuses, l, limit))
	}
	return h
}

// ComposeRecommendations builds the recommendations page.
func ComposeRecommendations(statuses map[string]collection.Status, l annotate.Lookup) Recommendations {
	g := composeGrid(types.CollectionRecommended, statuses, l, 0)
	var c types.Collection
	if g.State != collection.Failed {
		c = statuses[types.CollectionRecommended].Collection
	}
	algo := c.Algorithm
	if algo == "" {
		algo = types.AlgorithmPopular
	}
	return Recommendations{
		Grid:      g,
		Algorithm: DescribeAlgorithm(algo),
		Notice:    c.Notice,
	}
}

// ComposeMyRatings joins the snapshot against the union of fetched collections.
// Buckets follow union order and hold each id at most once.
func ComposeMyRatings(statuses map[string]collection.Status, r Ratings) MyRatings {
	var out MyRatings
	seen := make(map[types.MovieID]struct{})
	for _, name := range UnionCollections {
		for _, m := range statuses[name].Collection.Movies {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			switch p := r.Get(m.ID); p {
			case types.Like:
				out.Liked = append(out.Liked, types.AnnotatedMovie{Movie: m, Preference: p})
			case types.Dislike:
				out.Disliked = append(out.Disliked, types.AnnotatedMovie{Movie: m, Preference: p})
			}
		}
	}
	for _, rec := range r.Records() {
		if _, ok := seen[rec.MovieID]; !ok {
			out.Missing = append(out.Missing, rec.MovieID)
		}
	}
	sort.Slice(out.Missing, func(i, j int) bool { return out.Missing[i] < out.Missing[j] })
	return out
}

// DescribeAlgorithm maps a tag to its display name. Unknown tags read as popular.
func DescribeAlgorithm(a types.Algorithm) AlgorithmInfo {
	switch a {
	case types.AlgorithmContent:
		return AlgorithmInfo{Tag: a, Name: "Content-based recommendations", Description: "Based on the content of movies you liked"}
	case types.AlgorithmCollaborative:
		return AlgorithmInfo{Tag: a, Name: "Collaborative recommendations", Description: "Based on the preferences of similar users"}
	case types.AlgorithmHybrid:
		return AlgorithmInfo{Tag: a, Name: "Hybrid recommendations", Description: "A blend of content-based and collaborative algorithms"}
	case types.AlgorithmNew:
		return AlgorithmInfo{Tag: a, Name: "New releases", Description: "The most recently released movies"}
	default:
		return AlgorithmInfo{Tag: types.AlgorithmPopular, Name: "Popular movies", Description: "The most popular movies among all users"}
	}
}

func composeGrid(name string, statuses map[string]collection.Status, l annotate.Lookup, limit int) Grid {
	st, ok := statuses[name]
	if !ok {
		return Grid{Name: name, State: collection.Idle}
	}
	if st.State == collection.Failed {
		return Grid{Name: name, State: st.State, Err: st.Err}
	}
	movies := st.Collection.Movies
	g := Grid{Name: name, State: st.State, Err: st.Err, Total: len(movies)}
	if limit > 0 && len(movies) > limit {
		movies = movies[:limit]
	}
	g.Items = annotate.AnnotateMovies(movies, l)
	return g
}
