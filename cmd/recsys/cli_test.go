package main

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Adam14b/recsys-project/client"
	"github.com/Adam14b/recsys-project/internal/devbackend"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	b := &strings.Builder{}
	root.SetOut(b)
	root.SetArgs(args)
	err := root.Execute()
	return b.String(), err
}

func TestCLI_LikeThenMyRatings(t *testing.T) {
	srv := httptest.NewServer(devbackend.New().Handler())
	defer srv.Close()

	out, err := run(t, "like", "603", "--dev", "--service-url", srv.URL)
	if err != nil {
		t.Fatalf("like cmd failed: %v", err)
	}
	if !strings.Contains(out, "603: like") {
		t.Fatalf("unexpected like output: %q", out)
	}

	out, err = run(t, "dislike", "155", "--dev", "--service-url", srv.URL)
	if err != nil {
		t.Fatalf("dislike cmd failed: %v", err)
	}
	if !strings.Contains(out, "155: dislike") {
		t.Fatalf("unexpected dislike output: %q", out)
	}

	out, err = run(t, "my-ratings", "--dev", "--service-url", srv.URL)
	if err != nil {
		t.Fatalf("my-ratings cmd failed: %v", err)
	}
	if !strings.Contains(out, "Liked (1)") || !strings.Contains(out, "The Matrix") {
		t.Fatalf("liked movie missing: %q", out)
	}
	if !strings.Contains(out, "Disliked (1)") || !strings.Contains(out, "The Dark Knight") {
		t.Fatalf("disliked movie missing: %q", out)
	}

	// Liking again clears the preference.
	out, err = run(t, "like", "603", "--dev", "--service-url", srv.URL)
	if err != nil {
		t.Fatalf("second like cmd failed: %v", err)
	}
	if !strings.Contains(out, "603: none") {
		t.Fatalf("toggle not applied: %q", out)
	}
}

func TestCLI_HomeAnonymous(t *testing.T) {
	srv := httptest.NewServer(devbackend.New().Handler())
	defer srv.Close()

	out, err := run(t, "home", "--limit", "3", "--service-url", srv.URL)
	if err != nil {
		t.Fatalf("home cmd failed: %v", err)
	}
	if !strings.Contains(out, "== popular (ready, 3 of 16)") {
		t.Fatalf("popular grid missing: %q", out)
	}
	if !strings.Contains(out, "== new (ready") {
		t.Fatalf("new grid missing: %q", out)
	}
	if !strings.Contains(out, "Dune") {
		t.Fatalf("most popular movie missing: %q", out)
	}
}

func TestCLI_Settings(t *testing.T) {
	srv := httptest.NewServer(devbackend.New().Handler())
	defer srv.Close()

	out, err := run(t, "settings", "set", "--algorithm", "content", "--dev", "--service-url", srv.URL)
	if err != nil {
		t.Fatalf("settings set failed: %v", err)
	}
	if !strings.Contains(out, "Algorithm: content") {
		t.Fatalf("unexpected settings output: %q", out)
	}

	if _, err := run(t, "settings", "set", "--algorithm", "random", "--dev", "--service-url", srv.URL); err == nil {
		t.Fatal("expected unknown algorithm to be rejected")
	}
}

func TestCLI_ProfileRequiresLogin(t *testing.T) {
	srv := httptest.NewServer(devbackend.New().Handler())
	defer srv.Close()

	_, err := run(t, "profile", "--service-url", srv.URL)
	if !client.IsAuthRequired(err) {
		t.Fatalf("expected auth required, got %v", err)
	}

	out, err := run(t, "profile", "--dev", "--service-url", srv.URL)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if !strings.Contains(out, "Username: dev") {
		t.Fatalf("unexpected profile output: %q", out)
	}
}

func TestCLI_InvalidMovieID(t *testing.T) {
	if _, err := run(t, "like", "abc", "--service-url", "http://127.0.0.1:1"); err == nil {
		t.Fatal("expected invalid movie id error")
	}
}
