// Package client implements the auth-as-a-service admin API client
// (GoTrue-style surface: admin user management plus password grant).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/entremotivator/rentalappp1/internal/config"
	"github.com/entremotivator/rentalappp1/internal/identity/domain"
)

type Client struct {
	httpClient     *http.Client
	baseURL        string
	serviceRoleKey string
	anonKey        string
}

func New(cfg config.IdentityConfig) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        cfg.BaseURL,
		serviceRoleKey: cfg.ServiceRoleKey,
		anonKey:        cfg.AnonKey,
	}
}

type createUserPayload struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// CreateUser registers a new identity. The purchase already proves ownership
// of the email, so it is confirmed on creation.
func (c *Client) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.Identity, error) {
	payload := createUserPayload{
		Email:        req.Email,
		Password:     req.Password,
		EmailConfirm: true,
		UserMetadata: req.Metadata,
	}

	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", c.serviceRoleKey, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity, resp.StatusCode == http.StatusConflict:
		return nil, domain.ErrEmailExists
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, statusError(resp)
	}

	var identity domain.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// ListUsers returns the collaborator's user list. The provisioning
// orchestrator scans it for an existing identity by email.
func (c *Client) ListUsers(ctx context.Context) ([]domain.Identity, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users", c.serviceRoleKey, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	// The admin listing arrives either as a bare array or wrapped in
	// {"users": [...]} depending on the collaborator version.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var users []domain.Identity
	if err := json.Unmarshal(body, &users); err == nil {
		return users, nil
	}
	var wrapped struct {
		Users []domain.Identity `json:"users"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Users, nil
}

// SignInWithPassword exchanges credentials for an access token.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Token, error) {
	payload := map[string]string{"email": email, "password": password}

	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.anonKey, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	var decoded struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return &domain.Token{
		AccessToken: decoded.AccessToken,
		UserID:      decoded.User.ID,
		Email:       decoded.User.Email,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path, key string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(body))
	return fmt.Errorf("%w: status %d: %s", domain.ErrCollaboratorUnavailable, resp.StatusCode, detail)
}
