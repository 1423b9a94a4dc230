package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/types"
)

// ListPopular fetches the popular collection in server order.
func ListPopular(ctx context.Context, httpClient HTTPClient, baseURL string) ([]types.Movie, error) {
	return listMovies(ctx, httpClient, fmt.Sprintf("%s/api/popular", baseURL), "list popular")
}

// ListNew fetches the newest releases in server order.
func ListNew(ctx context.Context, httpClient HTTPClient, baseURL string) ([]types.Movie, error) {
	return listMovies(ctx, httpClient, fmt.Sprintf("%s/api/new", baseURL), "list new")
}

func listMovies(ctx context.Context, httpClient HTTPClient, url, op string) ([]types.Movie, error) {
	resp, err := do(ctx, httpClient, http.MethodGet, url, nil, op, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := decode(resp, op, &raw); err != nil {
		return nil, err
	}
	// Only a JSON array is an ordered sequence; null and scalars are not an
	// empty collection.
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, clienterrors.NewMalformedError(op, fmt.Errorf("expected a JSON array, got %.32q", string(trimmed)))
	}
	movies := []types.Movie{}
	if err := json.Unmarshal(trimmed, &movies); err != nil {
		return nil, clienterrors.NewMalformedError(op, err)
	}
	return movies, nil
}

// FetchCollection loads a collection by name, tagging it with its producer.
func FetchCollection(ctx context.Context, httpClient HTTPClient, baseURL, name string) (types.Collection, error) {
	if err := types.ValidateCollectionName(name); err != nil {
		return types.Collection{}, err
	}
	switch name {
	case types.CollectionPopular:
		movies, err := ListPopular(ctx, httpClient, baseURL)
		if err != nil {
			return types.Collection{}, err
		}
		return types.Collection{Name: name, Algorithm: types.AlgorithmPopular, Movies: movies}, nil
	case types.CollectionNew:
		movies, err := ListNew(ctx, httpClient, baseURL)
		if err != nil {
			return types.Collection{}, err
		}
		return types.Collection{Name: name, Algorithm: types.AlgorithmNew, Movies: movies}, nil
	default:
		rr, err := GetRecommendations(ctx, httpClient, baseURL)
		if err != nil {
			return types.Collection{}, err
		}
		return types.Collection{Name: name, Algorithm: rr.AlgorithmUsed, Notice: rr.Error, Movies: rr.Movies}, nil
	}
}
