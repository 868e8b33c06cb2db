package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20 // 1 MB

// TokenStore is the single session-token slot consulted by the
// authenticated variant on every request.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Client is the Gamers Cove API client.
type Client struct {
	baseURL    string
	tokens     TokenStore
	httpClient *http.Client
	headers    http.Header
	limiter    *rate.Limiter
	metrics    *Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds a header sent with every request. The public variant
// still strips Authorization even when it is set here.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records request counts and latency on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for request tracing and swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a new API client. tokens may be nil, in which case the
// authenticated variant behaves like the public one.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: http.Header{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Tokens returns the session-token slot the client reads from.
func (c *Client) Tokens() TokenStore { return c.tokens }

// token returns the stored session token, or "" when none is stored.
func (c *Client) token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	tok, err := c.tokens.Get(ctx)
	if err != nil {
		c.logger.Warn("read session token", "error", err)
		return ""
	}
	return tok
}

func (c *Client) clearToken(ctx context.Context) {
	if c.tokens == nil {
		return
	}
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Warn("clear session token", "error", err)
	}
}

// Requester issues requests through one of the two client variants.
type Requester struct {
	c    *Client
	auth bool
}

// Public returns the variant that never sends an Authorization header.
func (c *Client) Public() *Requester { return &Requester{c: c} }

// Auth returns the variant that attaches the stored session token.
func (c *Client) Auth() *Requester { return &Requester{c: c, auth: true} }

// Get issues a GET and decodes the unwrapped payload into out.
func (r *Requester) Get(ctx context.Context, path string, out any) error {
	return r.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (r *Requester) Post(ctx context.Context, path string, body, out any) error {
	return r.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (r *Requester) Put(ctx context.Context, path string, body, out any) error {
	return r.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE.
func (r *Requester) Delete(ctx context.Context, path string) error {
	return r.do(ctx, http.MethodDelete, path, nil, nil)
}

func (r *Requester) variant() string {
	if r.auth {
		return "auth"
	}
	return "public"
}

// do sends the request and applies error and response normalization.
func (r *Requester) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = data
	}

	resp, respBody, err := r.send(ctx, method, path, reqBody)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if r.auth && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			r.c.clearToken(ctx)
		}
		return newHTTPError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	payload := unwrap(respBody)
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs the round trip and returns the response with its body read.
// It is shared by the normalizing path and the raw API tester path.
func (r *Requester) send(ctx context.Context, method, path string, body []byte) (*http.Response, []byte, error) {
	c := r.c
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	req.Header.Del("Authorization")
	if r.auth {
		if tok := c.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(r.variant(), method, 0, elapsed)
		c.logger.Warn("request failed", "request_id", reqID, "method", method, "path", path, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("do request: %w", ctxErr)
		}
		return nil, nil, &NoResponseError{Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.metrics.observe(r.variant(), method, resp.StatusCode, elapsed)
	c.logger.Debug("request", "request_id", reqID, "variant", r.variant(), "method", method,
		"path", path, "status", resp.StatusCode, "duration", elapsed)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if resp.StatusCode >= 400 {
			return resp, []byte(fmt.Sprintf(`{"message":%q}`, "failed to read body: "+err.Error())), nil
		}
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, respBody, nil
}
