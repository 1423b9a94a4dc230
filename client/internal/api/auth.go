package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Adam14b/recsys-project/client/internal/types"
)

// Login starts a cookie session; the cookie lands in the client's jar.
func Login(ctx context.Context, httpClient HTTPClient, baseURL string, creds types.Credentials) error {
	url := fmt.Sprintf("%s/api/login", baseURL)
	resp, err := do(ctx, httpClient, http.MethodPost, url, creds, "login", http.StatusOK)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// Register creates an account. It does not sign the user in.
func Register(ctx context.Context, httpClient HTTPClient, baseURL string, req types.RegisterRequest) error {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return fmt.Errorf("register: username, email and password are required")
	}
	url := fmt.Sprintf("%s/api/register", baseURL)
	resp, err := do(ctx, httpClient, http.MethodPost, url, req, "register", http.StatusOK, http.StatusCreated)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// Logout ends the cookie session.
func Logout(ctx context.Context, httpClient HTTPClient, baseURL string) error {
	url := fmt.Sprintf("%s/api/logout", baseURL)
	resp, err := do(ctx, httpClient, http.MethodPost, url, nil, "logout", http.StatusOK)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// CheckAuth reports whether the current cookie session is signed in.
func CheckAuth(ctx context.Context, httpClient HTTPClient, baseURL string) (bool, error) {
	url := fmt.Sprintf("%s/api/check-auth", baseURL)
	resp, err := do(ctx, httpClient, http.MethodGet, url, nil, "check auth", http.StatusOK)
	if err != nil {
		return false, err
	}
	var cr types.CheckAuthResponse
	if err := decode(resp, "check auth", &cr); err != nil {
		return false, err
	}
	return cr.IsAuthenticated, nil
}
