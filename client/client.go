// Package client talks to a running partsledger server over its HTTP API.
// The CLI uses it to read a live instance without opening its database,
// which has a single writer.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/warp/parts-ledger/api"
	"github.com/warp/parts-ledger/inventory"
)

// Client is a resty-backed API client.
type Client struct {
	httpClient *resty.Client
}

// New builds a client for the server at baseURL, e.g. http://127.0.0.1:8080.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{httpClient: c}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("partsledger api: %d %s (%s): %s", e.Status, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("partsledger api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Stock returns the full stock table with latest prices.
func (c *Client) Stock(ctx context.Context) ([]inventory.PricedStock, error) {
	rows, err := fetchAll[api.StockDTO](ctx, c, "/api/stock")
	if err != nil {
		return nil, err
	}
	out := make([]inventory.PricedStock, len(rows))
	for i, r := range rows {
		out[i] = r.PricedStock
	}
	return out, nil
}

// Purchases returns the full purchase log.
func (c *Client) Purchases(ctx context.Context) ([]inventory.Transaction, error) {
	return c.transactions(ctx, "/api/purchases")
}

// Sales returns the full sale log.
func (c *Client) Sales(ctx context.Context) ([]inventory.Transaction, error) {
	return c.transactions(ctx, "/api/sales")
}

func (c *Client) transactions(ctx context.Context, path string) ([]inventory.Transaction, error) {
	rows, err := fetchAll[api.TransactionDTO](ctx, c, path)
	if err != nil {
		return nil, err
	}
	out := make([]inventory.Transaction, len(rows))
	for i, r := range rows {
		out[i] = r.Transaction
	}
	return out, nil
}

// fetchAll walks every page of a list endpoint.
func fetchAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		result := new(api.PageResponse[T])
		apiErr := new(api.ErrorResponse)

		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetQueryParam("page", fmt.Sprint(page)).
			SetQueryParam("size", fmt.Sprint(api.MaxPageSize)).
			SetResult(result).
			SetError(apiErr).
			Get(path)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", path, err)
		}
		if resp.StatusCode() >= http.StatusBadRequest {
			return nil, &APIError{Status: resp.StatusCode(), Code: apiErr.Code, Message: apiErr.Error, Field: apiErr.Field}
		}

		all = append(all, result.Items...)
		if page >= result.Pages {
			return all, nil
		}
	}
}
