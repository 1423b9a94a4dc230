package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Adam14b/recsys-project/client/internal/types"
)

// ListPreferences returns every preference the signed-in user has stored.
func ListPreferences(ctx context.Context, httpClient HTTPClient, baseURL string) ([]types.PreferenceRecord, error) {
	url := fmt.Sprintf("%s/api/user-likes", baseURL)
	resp, err := do(ctx, httpClient, http.MethodGet, url, nil, "list preferences", http.StatusOK)
	if err != nil {
		return nil, err
	}
	var lr types.ListPreferencesResponse
	if err := decode(resp, "list preferences", &lr); err != nil {
		return nil, err
	}
	return lr.Likes, nil
}

// SetPreference stores a Like or Dislike for one movie.
func SetPreference(ctx context.Context, httpClient HTTPClient, baseURL string, id types.MovieID, value types.Preference) error {
	if err := types.ValidateMovieID(id); err != nil {
		return err
	}
	if err := types.ValidateRating(value); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/like", baseURL)
	req := types.SetPreferenceRequest{MovieID: id, Value: value}
	resp, err := do(ctx, httpClient, http.MethodPost, url, req, "set preference", http.StatusOK, http.StatusCreated)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// ClearPreference removes the stored preference for one movie. A 404 means
// there was nothing to clear and counts as success.
func ClearPreference(ctx context.Context, httpClient HTTPClient, baseURL string, id types.MovieID) error {
	if err := types.ValidateMovieID(id); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/unlike", baseURL)
	req := types.ClearPreferenceRequest{MovieID: id}
	resp, err := do(ctx, httpClient, http.MethodPost, url, req, "clear preference", http.StatusOK, http.StatusNoContent, http.StatusNotFound)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}
