// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retrying HTTP client shared by the index
// fetcher and the downloader.
package httputil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pdiddy/dailymed/pkg/types"
)

// StatusError reports a response whose status is in the retry forcelist.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
}

// Client performs HTTP requests under a fixed retry policy. It holds no
// per-request state and is safe to reuse for any number of sequential
// requests.
type Client struct {
	hc       *http.Client
	policy   types.RetryConfig
	statuses map[int]bool
	methods  map[string]bool
	logger   *slog.Logger
}

// NewClient wraps hc with policy. A nil hc uses a fresh http.Client and a
// nil logger discards retry diagnostics.
func NewClient(hc *http.Client, policy types.RetryConfig, logger *slog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		hc:       hc,
		policy:   policy,
		statuses: make(map[int]bool, len(policy.StatusForcelist)),
		methods:  make(map[string]bool, len(policy.AllowedMethods)),
		logger:   logger,
	}
	for _, code := range policy.StatusForcelist {
		c.statuses[code] = true
	}
	for _, m := range policy.AllowedMethods {
		c.methods[strings.ToUpper(m)] = true
	}
	return c
}

// WithTimeout returns a copy of c whose attempts are each bounded by d.
// The copy shares the underlying transport and therefore its connection
// pool.
func (c *Client) WithTimeout(d time.Duration) *Client {
	hc := *c.hc
	hc.Timeout = d
	cp := *c
	cp.hc = &hc
	return &cp
}

// Policy returns the retry policy the client was built with.
func (c *Client) Policy() types.RetryConfig {
	return c.policy
}

// Get issues a GET request for url.
func (c *Client) Get(ctx context.Context, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return c.Do(req)
}

// Do executes req, retrying transient failures for methods in the allowed
// set. A response whose status is in the forcelist, or a transport error,
// is retried up to policy.Total times. The wait before retry n is
// BackoffFactor * 2^(n-1).
//
// When the retries run out on a forcelist status the last response is
// returned so the caller can inspect it. When they run out on transport
// errors the last error is returned. Other statuses are returned
// immediately, and a cancelled context is never retried.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if c.policy.Total <= 0 || !c.methods[req.Method] {
		return c.hc.Do(req)
	}

	backoff := retry.WithMaxRetries(uint64(c.policy.Total), retry.NewExponential(c.backoffBase()))

	attempt := 0
	return retry.DoValue(ctx, backoff, func(ctx context.Context) (*http.Response, error) {
		attempt++
		resp, err := c.hc.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			c.logger.Debug("request failed, retrying",
				"method", req.Method, "url", req.URL.String(),
				"attempt", attempt, "error", err)
			return nil, retry.RetryableError(err)
		}

		if !c.statuses[resp.StatusCode] || attempt > c.policy.Total {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		c.logger.Debug("transient status, retrying",
			"method", req.Method, "url", req.URL.String(),
			"status", resp.StatusCode, "attempt", attempt)
		return nil, retry.RetryableError(&StatusError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
		})
	})
}

// backoffBase returns the first wait. go-retry rejects non-positive bases,
// so a zero factor becomes the smallest representable wait.
func (c *Client) backoffBase() time.Duration {
	if c.policy.BackoffFactor <= 0 {
		return time.Nanosecond
	}
	return c.policy.BackoffFactor
}
