// Package cms talks to the content-management collaborator (WordPress REST
// v2). Synchronization is best-effort: provisioning never fails on cms errors.
package cms

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/entremotivator/rentalappp1/internal/config"
)

var ErrUnavailable = errors.New("cms_unavailable")

// User is the subset of the CMS user record this service reads and writes.
type User struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles,omitempty"`
}

// Client is the CMS surface consumed by the provisioning orchestrator.
type Client interface {
	UserByEmail(ctx context.Context, email string) (*User, error)
	EnsureUser(ctx context.Context, email, firstName, lastName string) (*User, error)
}

type httpClient struct {
	client     *http.Client
	baseURL    string
	authHeader string
}

func New(cfg config.WordPressConfig) Client {
	creds := cfg.Username + ":" + cfg.Password
	return &httpClient{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL + "/wp-json/wp/v2",
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(creds)),
	}
}

// UserByEmail searches CMS users and returns the exact (case-insensitive)
// email match, or nil when absent.
func (c *httpClient) UserByEmail(ctx context.Context, email string) (*User, error) {
	params := url.Values{}
	params.Set("search", email)
	params.Set("context", "edit")

	var users []User
	if err := c.getJSON(ctx, "/users?"+params.Encode(), &users); err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// EnsureUser creates a subscriber account when none exists for the email.
// The username is the email local part, matching store conventions.
func (c *httpClient) EnsureUser(ctx context.Context, email, firstName, lastName string) (*User, error) {
	existing, err := c.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	password, err := randomCMSPassword()
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"username":   strings.SplitN(email, "@", 2)[0],
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
		"password":   password,
		"roles":      []string{"subscriber"},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, body)
	}

	var created User
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
