// Package api is the HTTP client for the remote storefront API. The server
// is an external collaborator consumed only through its request/response
// contracts; every call is bounded by the client-wide timeout and transport
// failures surface as wrapped errors, never panics.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"trendora-client/logger"
	"trendora-client/models"
)

// ErrUnauthorized is returned when a privileged call comes back 401/403. The
// registered auth-failure hook has already run by the time callers see it.
var ErrUnauthorized = errors.New("api: unauthorized")

// Client talks to the storefront API.
type Client struct {
	base          string
	http          *http.Client
	tokenFn       func() string
	onAuthFailure func()
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

// SetTokenProvider wires the session's current bearer token. An empty string
// means no token is attached.
func (c *Client) SetTokenProvider(fn func() string) {
	c.tokenFn = fn
}

// SetAuthFailureHook registers the callback run when a privileged call is
// rejected with 401/403 (session invalidation lives there).
func (c *Client) SetAuthFailureHook(fn func()) {
	c.onAuthFailure = fn
}

// Login authenticates with email or phone plus password. A rejected login is
// not a transport error: the response payload carries success=false and the
// server's message.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	var resp models.LoginResponse

	body, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/login", bytes.NewReader(body))
	if err != nil {
		return resp, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("login request failed")
		return resp, fmt.Errorf("POST /api/login: %w", err)
	}
	defer httpResp.Body.Close()

	// The API answers failed logins with a JSON body on 401/400 as well.
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return resp, fmt.Errorf("POST /api/login: decoding response: %w", err)
	}
	return resp, nil
}

// FetchCart returns the server's cart for the user, converted to the local
// document shape.
func (c *Client) FetchCart(ctx context.Context, userID string) ([]models.CartLine, error) {
	var serverLines []models.ServerCartLine
	if err := c.do(ctx, http.MethodGet, "/api/cart/"+url.PathEscape(userID), nil, &serverLines, true); err != nil {
		return nil, err
	}
	lines := make([]models.CartLine, 0, len(serverLines))
	for _, sl := range serverLines {
		lines = append(lines, sl.ToCartLine())
	}
	return lines, nil
}

// SyncCart replaces the server's cart with the given full document.
func (c *Client) SyncCart(ctx context.Context, userID string, lines []models.CartLine) error {
	payload := struct {
		Items []models.CartLine `json:"items"`
	}{Items: lines}
	if payload.Items == nil {
		payload.Items = []models.CartLine{}
	}

	var resp models.SyncResponse
	if err := c.do(ctx, http.MethodPost, "/api/cart/sync/"+url.PathEscape(userID), payload, &resp, true); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("cart sync rejected: %s", resp.Error)
	}
	return nil
}

// ClearCart deletes the server-side cart. Best effort: the response body is
// ignored.
func (c *Client) ClearCart(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/clear/"+url.PathEscape(userID), nil, nil, true)
}

// Products returns the full catalog.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := c.do(ctx, http.MethodGet, "/api/products", nil, &products, false)
	return products, err
}

// SearchProducts returns catalog records matching the query.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	var products []models.Product
	err := c.do(ctx, http.MethodGet, "/api/products/search?q="+url.QueryEscape(query), nil, &products, false)
	return products, err
}

// ProductsByCategory returns the catalog records in the named category.
func (c *Client) ProductsByCategory(ctx context.Context, name string) ([]models.Product, error) {
	var products []models.Product
	err := c.do(ctx, http.MethodGet, "/api/products/category/"+url.PathEscape(name), nil, &products, false)
	return products, err
}

// Checkout submits the order. Bearer-token authenticated.
func (c *Client) Checkout(ctx context.Context, req models.CheckoutRequest) (models.OrderConfirmation, error) {
	var conf models.OrderConfirmation
	err := c.do(ctx, http.MethodPost, "/api/checkout", req, &conf, true)
	return conf, err
}

// do runs one request. authed attaches the bearer token and arms the
// auth-failure hook for 401/403 responses.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed && c.tokenFn != nil {
		if tok := c.tokenFn(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Get().Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if authed && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		if c.onAuthFailure != nil {
			c.onAuthFailure()
		}
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}
