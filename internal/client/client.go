// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/posmap/internal/logging"
)

const (
	// maxBodySize bounds how much of any response body is read.
	maxBodySize = 8 << 20

	defaultTimeout           = 15 * time.Second
	defaultRequestsPerSecond = 10
	defaultBurst             = 20
)

// ErrNotFound is returned when the requested point does not exist.
var ErrNotFound = errors.New("not found")

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string

	// Timeout bounds each HTTP request. Default 15s.
	Timeout time.Duration

	// RequestsPerSecond and Burst pace outbound requests. Defaults 10 and 20.
	RequestsPerSecond float64
	Burst             int

	// TokenSource returns the bearer token to send, or "" for none.
	TokenSource func() string

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to a PosMap server.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*rawResponse]
	token   func() string
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Pagination mirrors the server's pagination metadata.
type Pagination struct {
	Total   int64 `json:"total"`
	Count   int   `json:"count"`
	Offset  int   `json:"offset"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"has_more"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Pagination *Pagination `json:"pagination"`
	} `json:"meta"`
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// New creates a Client. Zero fields in cfg take their defaults.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	token := cfg.TokenSource
	if token == nil {
		token = func() string { return "" }
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: newBreaker("posmap-api"),
		token:   token,
	}
}

// BaseURL returns the server root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request through the limiter and the circuit breaker.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*rawResponse, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	return execute(c.breaker, func() (*rawResponse, error) {
		var reader io.Reader = http.NoBody
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		if id := logging.CorrelationIDFromContext(ctx); id != "" {
			req.Header.Set("X-Correlation-ID", id)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
		}
		raw := &rawResponse{status: resp.StatusCode, header: resp.Header, body: data}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, raw.apiError()
		}
		return raw, nil
	})
}

// apiError builds an APIError from an error envelope, falling back to the
// raw body text.
func (r *rawResponse) apiError() *APIError {
	apiErr := &APIError{Status: r.status}
	var env envelope
	if err := json.Unmarshal(r.body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(r.body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(r.status)
	}
	return apiErr
}

// decodeData unwraps a success envelope into out. A 404 becomes ErrNotFound
// and any other non-2xx an *APIError.
func decodeData(r *rawResponse, out interface{}) (*Pagination, error) {
	if r.status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, r.apiError().Message)
	}
	if r.status < 200 || r.status > 299 {
		return nil, r.apiError()
	}
	if out == nil || r.status == http.StatusNoContent {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(r.body, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if !env.Success {
		return nil, r.apiError()
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return nil, fmt.Errorf("decode response data: %w", err)
	}
	if env.Meta != nil {
		return env.Meta.Pagination, nil
	}
	return nil, nil
}
