// Package client implements the WooCommerce REST v3 order-query client.
package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/entremotivator/rentalappp1/internal/commerce/domain"
	"github.com/entremotivator/rentalappp1/internal/config"
)

// Client talks to the WooCommerce REST API with Basic auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
	pageSize   int
}

func New(cfg config.WooCommerceConfig) *Client {
	pageSize := cfg.OrdersPageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	creds := cfg.ConsumerKey + ":" + cfg.ConsumerSecret
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL + "/wp-json/wc/v3",
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(creds)),
		pageSize:   pageSize,
	}
}

// ListCompletedOrders returns one bounded page of completed orders, filtered
// by customer email when the collaborator supports it. The verifier re-checks
// billing emails itself, so the filter is an optimization, not a guarantee.
func (c *Client) ListCompletedOrders(ctx context.Context, customerEmail string) ([]domain.Order, error) {
	params := url.Values{}
	params.Set("status", "completed")
	params.Set("per_page", strconv.Itoa(c.pageSize))
	if customerEmail != "" {
		params.Set("search", customerEmail)
	}

	var orders []domain.Order
	if err := c.getJSON(ctx, "/orders?"+params.Encode(), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CustomerByEmail looks up a store customer record by email.
func (c *Client) CustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	params := url.Values{}
	params.Set("email", email)

	var customers []domain.Customer
	if err := c.getJSON(ctx, "/customers?"+params.Encode(), &customers); err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, domain.ErrCustomerNotFound
	}
	return &customers[0], nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", domain.ErrCollaboratorUnavailable, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
