package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/Adam14b/recsys-project/client/internal/types"
)

func TestGetProfile_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"username":"neo","email":"neo@zion","date_joined":"2024-01-02 03:04:05","likes_count":7}`)
	}))
	defer srv.Close()

	p, err := GetProfile(context.Background(), srv.Client(), srv.URL)
	if err != nil || p.Username != "neo" || p.LikesCount != 7 {
		t.Fatalf("GetProfile unexpected: p=%+v err=%v", p, err)
	}
}

func TestSettings_GetAndPartialUpdate(t *testing.T) {
	t.Parallel()
	var posted map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"recommendation_algorithm":"hybrid","content_weight":0.7,"collaborative_weight":0.3}`)
		case http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&posted)
			_, _ = io.WriteString(w, `{"status":"success"}`)
		}
	}))
	defer srv.Close()

	s, err := GetSettings(context.Background(), srv.Client(), srv.URL)
	if err != nil || s.Algorithm != types.AlgorithmHybrid || s.ContentWeight != 0.7 {
		t.Fatalf("GetSettings unexpected: s=%+v err=%v", s, err)
	}

	algo := types.AlgorithmContent
	if err := UpdateSettings(context.Background(), srv.Client(), srv.URL, types.UpdateSettingsRequest{Algorithm: &algo}); err != nil {
		t.Fatalf("UpdateSettings error: %v", err)
	}
	if posted["recommendation_algorithm"] != "content" {
		t.Fatalf("unexpected body: %v", posted)
	}
	if _, ok := posted["content_weight"]; ok {
		t.Fatalf("unset fields must be omitted: %v", posted)
	}
}

func TestUpdateSettings_RejectsBadInput(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	}))
	defer srv.Close()

	bad := types.Algorithm("random")
	if err := UpdateSettings(context.Background(), srv.Client(), srv.URL, types.UpdateSettingsRequest{Algorithm: &bad}); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
	w := 1.5
	if err := UpdateSettings(context.Background(), srv.Client(), srv.URL, types.UpdateSettingsRequest{ContentWeight: &w}); err == nil {
		t.Fatal("expected error for weight out of range")
	}
}
