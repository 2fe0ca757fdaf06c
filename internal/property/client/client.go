// Package client implements the property data provider client.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/entremotivator/rentalappp1/internal/config"
	"github.com/entremotivator/rentalappp1/internal/property/domain"
)

// Client talks to the property data API. Authentication is a per-request
// X-Api-Key header.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func New(cfg config.RentCastConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// SearchProperties looks up property records by free-form address. The
// provider's envelope varies by endpoint, so the raw body is normalized
// rather than decoded into a fixed shape.
func (c *Client) SearchProperties(ctx context.Context, address string) ([]domain.Property, error) {
	params := url.Values{}
	params.Set("address", address)

	body, err := c.get(ctx, "/properties?"+params.Encode())
	if err != nil {
		return nil, err
	}
	return domain.Normalize(body)
}

// MarketData returns market statistics for a zip code as an opaque document.
func (c *Client) MarketData(ctx context.Context, zipCode string) (map[string]any, error) {
	params := url.Values{}
	params.Set("zipCode", zipCode)
	params.Set("dataType", "All")

	body, err := c.get(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedEnvelope, err)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNoResults
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrCollaboratorUnavailable, resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}
