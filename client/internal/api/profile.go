package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Adam14b/recsys-project/client/internal/types"
)

// GetProfile returns the signed-in account.
func GetProfile(ctx context.Context, httpClient HTTPClient, baseURL string) (*types.Profile, error) {
	url := fmt.Sprintf("%s/api/profile", baseURL)
	resp, err := do(ctx, httpClient, http.MethodGet, url, nil, "get profile", http.StatusOK)
	if err != nil {
		return nil, err
	}
	var p types.Profile
	if err := decode(resp, "get profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetSettings returns the recommendation settings, created with defaults on first read.
func GetSettings(ctx context.Context, httpClient HTTPClient, baseURL string) (*types.Settings, error) {
	url := fmt.Sprintf("%s/api/user-settings", baseURL)
	resp, err := do(ctx, httpClient, http.MethodGet, url, nil, "get settings", http.StatusOK)
	if err != nil {
		return nil, err
	}
	var s types.Settings
	if err := decode(resp, "get settings", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings applies a partial update.
func UpdateSettings(ctx context.Context, httpClient HTTPClient, baseURL string, req types.UpdateSettingsRequest) error {
	if req.Algorithm != nil {
		switch *req.Algorithm {
		case types.AlgorithmPopular, types.AlgorithmContent, types.AlgorithmCollaborative, types.AlgorithmHybrid:
		default:
			return fmt.Errorf("update settings: unknown algorithm %q", *req.Algorithm)
		}
	}
	content, collab := 0.5, 0.5
	if req.ContentWeight != nil {
		content = *req.ContentWeight
	}
	if req.CollaborativeWeight != nil {
		collab = *req.CollaborativeWeight
	}
	if err := types.ValidateWeights(content, collab); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	url := fmt.Sprintf("%s/api/user-settings", baseURL)
	resp, err := do(ctx, httpClient, http.MethodPost, url, req, "update settings", http.StatusOK)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}
