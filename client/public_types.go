package client

import "github.com/Adam14b/recsys-project/client/internal/types"

// Public type aliases so SDK consumers can import only the client package.
type (
	// Domain entities
	MovieID          = types.MovieID
	Movie            = types.Movie
	Genres           = types.Genres
	Preference       = types.Preference
	Algorithm        = types.Algorithm
	Collection       = types.Collection
	AnnotatedMovie   = types.AnnotatedMovie
	PreferenceRecord = types.PreferenceRecord
	Profile          = types.Profile
	Settings         = types.Settings

	// Requests
	Credentials           = types.Credentials
	RegisterRequest       = types.RegisterRequest
	UpdateSettingsRequest = types.UpdateSettingsRequest
)

// Preference values.
const (
	None    = types.None
	Like    = types.Like
	Dislike = types.Dislike
)

// Algorithm tags.
const (
	AlgorithmPopular       = types.AlgorithmPopular
	AlgorithmNew           = types.AlgorithmNew
	AlgorithmContent       = types.AlgorithmContent
	AlgorithmCollaborative = types.AlgorithmCollaborative
	AlgorithmHybrid        = types.AlgorithmHybrid
)

// Collection names.
const (
	CollectionPopular     = types.CollectionPopular
	CollectionNew         = types.CollectionNew
	CollectionRecommended = types.CollectionRecommended
)

// ParsePreference parses "like", "dislike" or "none".
func ParsePreference(s string) (Preference, error) { return types.ParsePreference(s) }
