package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RawResponse is an unnormalized reply, as shown by the API tester.
type RawResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Do sends an arbitrary request with the session token attached when one
// is stored. body must be empty or valid JSON; it is checked before any
// network call. Non-2xx replies are returned, not turned into errors.
func (c *Client) Do(ctx context.Context, method, path, body string) (*RawResponse, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var reqBody []byte
	if strings.TrimSpace(body) != "" {
		if !json.Valid([]byte(body)) {
			return nil, ErrInvalidJSON
		}
		reqBody = []byte(body)
	}

	start := time.Now()
	resp, respBody, err := c.Auth().send(ctx, method, path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("client.Do: %w", err)
	}
	return &RawResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       respBody,
		Duration:   time.Since(start),
	}, nil
}
