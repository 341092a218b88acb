// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/dailymed/pkg/types"
)

// testPolicy is the default policy with a tiny backoff so tests finish
// quickly.
func testPolicy(total int) types.RetryConfig {
	p := types.DefaultRetryConfig()
	p.Total = total
	p.BackoffFactor = time.Millisecond
	return p
}

// statusSequence returns a handler that replies with codes in order,
// repeating the last one, and counts calls.
func statusSequence(calls *int32, codes ...int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(calls, 1))
		if n > len(codes) {
			n = len(codes)
		}
		w.WriteHeader(codes[n-1])
	}
}

func TestDo_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusOK))
	defer ts.Close()

	c := NewClient(ts.Client(), testPolicy(3), nil)
	resp, err := c.Get(context.Background(), ts.URL, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_503ThenSuccessOnFinalAttempt(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls,
		http.StatusServiceUnavailable,
		http.StatusServiceUnavailable,
		http.StatusServiceUnavailable,
		http.StatusOK,
	))
	defer ts.Close()

	c := NewClient(ts.Client(), testPolicy(3), nil)
	resp, err := c.Get(context.Background(), ts.URL, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// 1 initial + 3 retries = 4 total calls.
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestDo_ExhaustsRetries(t *testing.T) {
	for _, code := range []int{
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(statusSequence(&calls, code))
			defer ts.Close()

			c := NewClient(ts.Client(), testPolicy(2), nil)
			resp, err := c.Get(context.Background(), ts.URL, "")
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, code, resp.StatusCode)
			assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
		})
	}
}

func TestDo_NotFoundNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusNotFound))
	defer ts.Close()

	c := NewClient(ts.Client(), testPolicy(3), nil)
	resp, err := c.Get(context.Background(), ts.URL, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_TooManyRequestsNotInForcelist(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusTooManyRequests))
	defer ts.Close()

	c := NewClient(ts.Client(), testPolicy(3), nil)
	resp, err := c.Get(context.Background(), ts.URL, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_NonIdempotentMethodNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusServiceUnavailable))
	defer ts.Close()

	c := NewClient(ts.Client(), testPolicy(3), nil)
	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader("x"))
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_HeadAndOptionsRetried(t *testing.T) {
	for _, method := range []string{http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(statusSequence(&calls, http.StatusBadGateway, http.StatusOK))
			defer ts.Close()

			c := NewClient(ts.Client(), testPolicy(3), nil)
			req, err := http.NewRequest(method, ts.URL, nil)
			require.NoError(t, err)

			resp, err := c.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
		})
	}
}

func TestDo_ZeroTotalSingleAttempt(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusServiceUnavailable))
	defer ts.Close()

	c := NewClient(ts.Client(), testPolicy(0), nil)
	resp, err := c.Get(context.Background(), ts.URL, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

var errReset = errors.New("connection reset by peer")

func TestDo_TransportErrorRetried(t *testing.T) {
	var calls int32
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errReset
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("ok")),
			Request:    r,
		}, nil
	})}

	c := NewClient(hc, testPolicy(3), nil)
	resp, err := c.Get(context.Background(), "http://dailymed.invalid/x", "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_TransportErrorExhausted(t *testing.T) {
	var calls int32
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errReset
	})}

	c := NewClient(hc, testPolicy(2), nil)
	_, err := c.Get(context.Background(), "http://dailymed.invalid/x", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errReset)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	// Use a longer backoff so the context cancels during the wait.
	p := testPolicy(5)
	p.BackoffFactor = 500 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c := NewClient(ts.Client(), p, nil)
	_, err := c.Get(ctx, ts.URL, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_SetsUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	c := NewClient(ts.Client(), testPolicy(1), nil)
	resp, err := c.Get(context.Background(), ts.URL, "dailymed-test/1.0")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "dailymed-test/1.0", got)
}

func TestWithTimeout_SharesTransport(t *testing.T) {
	base := &http.Client{Transport: http.DefaultTransport}
	c := NewClient(base, testPolicy(1), nil)
	tc := c.WithTimeout(10 * time.Second)

	assert.Equal(t, time.Duration(0), c.hc.Timeout)
	assert.Equal(t, 10*time.Second, tc.hc.Timeout)
	assert.Same(t, c.hc.Transport.(*http.Transport), tc.hc.Transport.(*http.Transport))
	assert.Equal(t, c.Policy(), tc.Policy())
}
