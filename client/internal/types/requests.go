package types

// ------------------------------
// Request Types
// ------------------------------

// SetPreferenceRequest is the body of POST /api/like.
type SetPreferenceRequest struct {
	MovieID MovieID    `json:"tmdb_id"`
	Value   Preference `json:"value"`
}

// ClearPreferenceRequest is the body of POST /api/unlike.
type ClearPreferenceRequest struct {
	MovieID MovieID `json:"tmdb_id"`
}

// Credentials holds login parameters.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest holds parameters for a new account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateSettingsRequest carries a partial settings update; nil fields are left unchanged.
type UpdateSettingsRequest struct {
	Algorithm           *Algorithm `json:"recommendation_algorithm,omitempty"`
	ContentWeight       *float64   `json:"content_weight,omitempty"`
	CollaborativeWeight *float64   `json:"collaborative_weight,omitempty"`
}
