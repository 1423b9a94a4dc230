package types

// ------------------------------
// Response Types
// ------------------------------

// ListPreferencesResponse mirrors GET /api/user-likes.
type ListPreferencesResponse struct {
	Likes []PreferenceRecord `json:"likes"`
}

// RecommendationsResponse mirrors GET /api/smart-recommendations.
type RecommendationsResponse struct {
	Movies        []Movie   `json:"movies"`
	AlgorithmUsed Algorithm `json:"algorithm_used"`
	TotalCount    int       `json:"total_count"`
	Error         string    `json:"error,omitempty"`
}

// StatusResponse is the generic {"status","message"} envelope.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// CheckAuthResponse mirrors GET /api/check-auth.
type CheckAuthResponse struct {
	IsAuthenticated bool `json:"is_authenticated"`
}
