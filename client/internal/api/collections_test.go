package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/types"
)

const popularBody = `[
 {"tmdb_id":603,"title":"The Matrix","poster_url":"https://img/603.jpg","genres":"Action, Science Fiction","vote_average":8.2,"vote_count":100,"release_date":null},
 {"tmdb_id":13,"title":"Forrest Gump","genres":["Drama"]}
]`

func TestFetchCollection_Popular(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/popular" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, popularBody)
	}))
	defer srv.Close()

	c, err := FetchCollection(context.Background(), srv.Client(), srv.URL, types.CollectionPopular)
	if err != nil {
		t.Fatalf("FetchCollection error: %v", err)
	}
	if c.Algorithm != types.AlgorithmPopular || len(c.Movies) != 2 {
		t.Fatalf("unexpected collection: %+v", c)
	}
	m := c.Movies[0]
	if m.ID != 603 || len(m.Genres) != 2 || m.Genres[1] != "Science Fiction" || m.VoteAverage == nil || *m.VoteAverage != 8.2 {
		t.Fatalf("unexpected movie: %+v", m)
	}
	if c.Movies[1].Genres[0] != "Drama" {
		t.Fatalf("list genres not decoded: %+v", c.Movies[1])
	}
}

func TestFetchCollection_NewEmpty(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c, err := FetchCollection(context.Background(), srv.Client(), srv.URL, types.CollectionNew)
	if err != nil || c.Algorithm != types.AlgorithmNew || len(c.Movies) != 0 {
		t.Fatalf("unexpected: c=%+v err=%v", c, err)
	}
}

func TestFetchCollection_ObjectIsMalformed(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	}))
	defer srv.Close()

	_, err := FetchCollection(context.Background(), srv.Client(), srv.URL, types.CollectionPopular)
	if !errors.Is(err, clienterrors.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestFetchCollection_NonArrayIsMalformed(t *testing.T) {
	t.Parallel()
	for _, body := range []string{"null", " null\n", "42", `"popular"`, "true"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))
		for _, name := range []string{types.CollectionPopular, types.CollectionNew} {
			c, err := FetchCollection(context.Background(), srv.Client(), srv.URL, name)
			if !errors.Is(err, clienterrors.ErrMalformedPayload) {
				t.Errorf("%s body %q: expected ErrMalformedPayload, got movies=%v err=%v", name, body, c.Movies, err)
			}
		}
		srv.Close()
	}
}

func TestFetchCollection_EmptyArrayIsEmptyCollection(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, " []")
	}))
	defer srv.Close()

	c, err := FetchCollection(context.Background(), srv.Client(), srv.URL, types.CollectionNew)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Movies == nil || len(c.Movies) != 0 {
		t.Fatalf("expected empty non-nil movies, got %#v", c.Movies)
	}
}

func TestFetchCollection_UnknownName(t *testing.T) {
	t.Parallel()
	if _, err := FetchCollection(context.Background(), http.DefaultClient, "http://example", "trending"); err == nil {
		t.Fatal("expected error for unknown collection")
	}
}

func TestFetchCollection_Recommended(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/smart-recommendations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"movies":[{"tmdb_id":5,"title":"x"}],"algorithm_used":"popular","total_count":1,"error":"fallback used"}`)
	}))
	defer srv.Close()

	c, err := FetchCollection(context.Background(), srv.Client(), srv.URL, types.CollectionRecommended)
	if err != nil {
		t.Fatalf("FetchCollection error: %v", err)
	}
	if c.Notice != "fallback used" || c.Algorithm != types.AlgorithmPopular || len(c.Movies) != 1 {
		t.Fatalf("unexpected collection: %+v", c)
	}
}

func TestGetRecommendations_MissingMoviesIsMalformed(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"algorithm_used":"hybrid"}`)
	}))
	defer srv.Close()

	if _, err := GetRecommendations(context.Background(), srv.Client(), srv.URL); !errors.Is(err, clienterrors.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestGetRecommendations_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"no recommendations"}`)
	}))
	defer srv.Close()

	_, err := GetRecommendations(context.Background(), srv.Client(), srv.URL)
	var ce *clienterrors.ClassifiedError
	if !errors.As(err, &ce) || ce.StatusCode != 500 {
		t.Fatalf("expected classified 500, got %v", err)
	}
}
