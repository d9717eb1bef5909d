// Package cartclient talks to the cart HTTP API and implements cartstate.Remote.
package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/angelmondragon/shopcart/pkg/cartstate"
	"github.com/angelmondragon/shopcart/pkg/config"
	pkgerrors "github.com/angelmondragon/shopcart/pkg/errors"
	"github.com/angelmondragon/shopcart/pkg/types"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerRequestID      = "X-Request-Id"
	maxErrorBody         = 64 << 10
)

// Client is a cart API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ cartstate.Remote = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client from the API configuration.
func New(cfg config.CartAPIConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// FetchCart returns every line in the cart.
func (c *Client) FetchCart(ctx context.Context) ([]cartstate.CartLine, error) {
	var lines []cartstate.CartLine
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &lines, false); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []cartstate.CartLine{}
	}
	return lines, nil
}

// AddItem posts a new line and returns the server's copy.
func (c *Client) AddItem(ctx context.Context, line cartstate.CartLine) (cartstate.CartLine, error) {
	var out cartstate.CartLine
	if err := c.do(ctx, http.MethodPost, "/cart/item", line, &out, false); err != nil {
		return cartstate.CartLine{}, err
	}
	return out, nil
}

// UpdateQuantity sets the quantity of an existing line.
func (c *Client) UpdateQuantity(ctx context.Context, lineID string, quantity int) (cartstate.CartLine, error) {
	var out cartstate.CartLine
	if err := c.do(ctx, http.MethodPut, itemPath(lineID), quantityRequest{Quantity: quantity}, &out, false); err != nil {
		return cartstate.CartLine{}, err
	}
	return out, nil
}

// DeleteItem removes a line. A line the server no longer has counts as removed.
func (c *Client) DeleteItem(ctx context.Context, lineID string) error {
	return c.do(ctx, http.MethodDelete, itemPath(lineID), nil, nil, true)
}

// ClearCart removes every line.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil, true)
}

func itemPath(lineID string) string {
	return "/cart/item/" + url.PathEscape(lineID)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, tolerateNotFound bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRateLimit, err, "cart api rate limit")
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerRequestID, uuid.NewString())
	if method != http.MethodGet {
		req.Header.Set(headerIdempotencyKey, uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart api unreachable")
	}
	defer resp.Body.Close()

	if tolerateNotFound && resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError rebuilds a typed error from a non-2xx response, preferring the server's
// error envelope message over the status text.
func decodeError(resp *http.Response) error {
	code := pkgerrors.CodeForStatus(resp.StatusCode)
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return pkgerrors.New(code, envelope.Error.Message).WithDetails(map[string]any{
			"status":      resp.StatusCode,
			"remote_code": envelope.Error.Code,
		})
	}

	msg := http.StatusText(resp.StatusCode)
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 256 {
		msg = text
	}
	if msg == "" {
		msg = resp.Status
	}
	return pkgerrors.New(code, msg).WithDetails(map[string]any{"status": resp.StatusCode})
}
