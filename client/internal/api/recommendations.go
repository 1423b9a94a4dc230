package api

import (
	"context"
	"fmt"
	"net/http"

	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/types"
)

// GetRecommendations fetches the personalised list. A populated Error field
// with movies is a degraded fallback, not a failure.
func GetRecommendations(ctx context.Context, httpClient HTTPClient, baseURL string) (*types.RecommendationsResponse, error) {
	url := fmt.Sprintf("%s/api/smart-recommendations", baseURL)
	resp, err := do(ctx, httpClient, http.MethodGet, url, nil, "get recommendations", http.StatusOK)
	if err != nil {
		return nil, err
	}
	var rr types.RecommendationsResponse
	if err := decode(resp, "get recommendations", &rr); err != nil {
		return nil, err
	}
	if rr.Movies == nil && rr.Error == "" {
		return nil, clienterrors.NewMalformedError("get recommendations", fmt.Errorf("missing movies"))
	}
	if rr.AlgorithmUsed == "" {
		rr.AlgorithmUsed = types.AlgorithmPopular
	}
	return &rr, nil
}
