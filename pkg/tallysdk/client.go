package tallysdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to the Tally API. Unauthenticated calls live here; the
// authenticated ones hang off the Session returned by Register, Login,
// Guest or NewSession.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns a session for it.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*Session, *AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/users/register", "", req, &out); err != nil {
		return nil, nil, err
	}
	return c.sessionFrom(&out), &out, nil
}

func (c *SDKClient) Login(ctx context.Context, username, password string) (*Session, *AuthResponse, error) {
	var out AuthResponse
	req := LoginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/users/login", "", req, &out); err != nil {
		return nil, nil, err
	}
	return c.sessionFrom(&out), &out, nil
}

// Guest creates a throwaway account that can later be upgraded.
func (c *SDKClient) Guest(ctx context.Context) (*Session, *AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/users/guest", "", nil, &out); err != nil {
		return nil, nil, err
	}
	return c.sessionFrom(&out), &out, nil
}

// Refresh exchanges an access token (expired is fine) plus a valid refresh
// token for a new pair.
func (c *SDKClient) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	var out TokenPair
	req := TokenPair{Token: accessToken, RefreshToken: refreshToken}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes refreshToken.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/users/logout", "", LogoutRequest{RefreshToken: refreshToken}, nil)
}

func (c *SDKClient) GetFrequencies(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.doJSON(ctx, http.MethodGet, "/expenses/getFrequencies", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) sessionFrom(resp *AuthResponse) *Session {
	return c.NewSession(resp.User.ID, resp.Token, resp.RefreshToken)
}
