package types

import (
	"fmt"
	"strconv"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// MovieID is the stable external identifier of a movie (TMDB id).
type MovieID int

// String renders the id in decimal; it is also the executor shard key.
func (id MovieID) String() string { return strconv.Itoa(int(id)) }

// Movie is an item of a collection. Immutable once fetched.
type Movie struct {
	ID          MovieID  `json:"tmdb_id"`
	Title       string   `json:"title"`
	PosterURL   string   `json:"poster_url,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	Genres      Genres   `json:"genres,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
	VoteCount   *int     `json:"vote_count,omitempty"`
}

// Preference is the tri-state opinion of the active user on a movie.
// None is the absence of a record, never a stored value.
type Preference int8

const (
	None    Preference = 0
	Like    Preference = 1
	Dislike Preference = -1
)

// Valid reports whether p is one of the three known values.
func (p Preference) Valid() bool { return p == None || p == Like || p == Dislike }

func (p Preference) String() string {
	switch p {
	case None:
		return "none"
	case Like:
		return "like"
	case Dislike:
		return "dislike"
	default:
		return fmt.Sprintf("Preference(%d)", int8(p))
	}
}

// ParsePreference accepts the names produced by String.
func ParsePreference(s string) (Preference, error) {
	switch s {
	case "none", "":
		return None, nil
	case "like":
		return Like, nil
	case "dislike":
		return Dislike, nil
	default:
		return None, fmt.Errorf("unknown preference %q", s)
	}
}

// Algorithm tags the producer of a collection.
type Algorithm string

const (
	AlgorithmPopular       Algorithm = "popular"
	AlgorithmNew           Algorithm = "new"
	AlgorithmContent       Algorithm = "content"
	AlgorithmCollaborative Algorithm = "collaborative"
	AlgorithmHybrid        Algorithm = "hybrid"
)

// Known collection names served by the remote collection service.
const (
	CollectionPopular     = "popular"
	CollectionNew         = "new"
	CollectionRecommended = "recommended"
)

// Collection is a named, server-ranked sequence of movies unique by ID.
type Collection struct {
	Name      string
	Algorithm Algorithm
	// Notice is a non-fatal message from the producer, e.g. a degraded fallback.
	Notice string
	Movies []Movie
}

// AnnotatedMovie pairs a movie with the current preference. Derived, never persisted.
type AnnotatedMovie struct {
	Movie
	Preference Preference
}

// PreferenceRecord is one stored opinion as returned by the remote service.
type PreferenceRecord struct {
	MovieID MovieID    `json:"tmdb_id"`
	Value   Preference `json:"value"`
}

// Profile describes the signed-in account.
type Profile struct {
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	DateJoined string `json:"date_joined"`
	LikesCount int    `json:"likes_count"`
}

// Settings holds the per-user recommendation configuration.
type Settings struct {
	Algorithm           Algorithm `json:"recommendation_algorithm"`
	ContentWeight       float64   `json:"content_weight"`
	CollaborativeWeight float64   `json:"collaborative_weight"`
}
