// Package httpclient provides the HTTP client shared by every API-backed
// analyzer, with retry, backoff, rate limiting and response caching.
package httpclient

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"rastro/internal/platform/cache"
	"rastro/internal/platform/errors"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/rate"
)

// Client is an HTTP client with retry logic, rate limiting and an optional
// in-process GET cache to suppress duplicate upstream calls within a run.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	getCache    cache.Cache
	logger      logx.Logger
	config      Config
}

// Config holds the configuration for the HTTP client.
type Config struct {
	// Timeout is the per-request timeout. Default: 30s.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts. Default: 2.
	MaxRetries int

	// RetryBackoff is the initial backoff, doubled per retry. Default: 1s.
	RetryBackoff time.Duration

	// MaxRetryBackoff caps the backoff. Default: 30s.
	MaxRetryBackoff time.Duration

	// UserAgent is the User-Agent header value.
	UserAgent string

	// RateLimit is the maximum requests per second (0 = no limit).
	RateLimit float64

	// RateLimitBurst is the burst size for rate limiting. Default: 1.
	RateLimitBurst int

	// ProxyURL routes every request through an HTTP or SOCKS5 proxy
	// (empty = direct connection).
	ProxyURL string

	// CacheTTL enables GET response caching when > 0.
	CacheTTL time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    1 * time.Second,
		MaxRetryBackoff: 30 * time.Second,
		UserAgent:       "rastro/1.0",
	}
}

// New creates a new HTTP client with the given configuration.
func New(config Config, logger logx.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 1 * time.Second
	}
	if config.MaxRetryBackoff == 0 {
		config.MaxRetryBackoff = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "rastro/1.0"
	}
	if config.RateLimitBurst == 0 {
		config.RateLimitBurst = 1
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.New(config.RateLimit, config.RateLimitBurst)
	}

	var getCache cache.Cache
	if config.CacheTTL > 0 {
		getCache = cache.NewMemoryCache(256)
	}

	var transport http.RoundTripper
	if config.ProxyURL != "" {
		if proxyURL, err := url.Parse(config.ProxyURL); err == nil {
			t := http.DefaultTransport.(*http.Transport).Clone()
			t.Proxy = http.ProxyURL(proxyURL)
			transport = t
		} else {
			logger.Warn("invalid proxy URL, using direct connection", "proxy", config.ProxyURL)
		}
	}

	return &Client{
		httpClient:  &http.Client{Timeout: config.Timeout, Transport: transport},
		rateLimiter: limiter,
		getCache:    getCache,
		logger:      logger.With("component", "httpclient"),
		config:      config,
	}
}

// Request performs an HTTP request with retry logic and rate limiting.
// The caller owns the response body.
func (c *Client) Request(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	// The body is buffered up front so each retry replays the full payload
	// instead of re-reading an already-consumed reader.
	var payload []byte
	if body != nil {
		var err error
		payload, err = io.ReadAll(body)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read request body for %s %s", method, url)
		}
	}

	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return nil, errors.Wrap(err, "rate limit wait failed")
			}
		}

		var attemptBody io.Reader
		if payload != nil {
			attemptBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, attemptBody)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create request for %s %s", method, url)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		c.logger.Debug("HTTP request", "method", method, "url", url, "attempt", attempt+1)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)

		if err != nil {
			c.logger.Warn("HTTP request failed",
				"method", method,
				"url", url,
				"attempt", attempt+1,
				"error", err.Error(),
				"duration_ms", duration.Milliseconds(),
			)
			lastErr = err
			if !c.shouldRetry(attempt, err, nil) {
				return nil, errors.Wrapf(err, "request failed after %d attempts", attempt+1)
			}
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, errors.Wrap(err, "backoff interrupted")
			}
			continue
		}

		c.logger.Debug("HTTP response",
			"method", method,
			"url", url,
			"status", resp.StatusCode,
			"duration_ms", duration.Milliseconds(),
		)

		if !c.isRetryableStatus(resp) {
			return resp, nil
		}

		resp.Body.Close()
		lastErr = errors.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)

		if !c.shouldRetry(attempt, nil, resp) {
			break
		}

		c.logger.Warn("HTTP request returned retryable status",
			"method", method,
			"url", url,
			"status", resp.StatusCode,
			"attempt", attempt+1,
		)
		if err := c.backoff(ctx, attempt); err != nil {
			return nil, errors.Wrap(err, "backoff interrupted")
		}
	}

	return nil, errors.Wrapf(lastErr, "request failed after %d attempts", c.config.MaxRetries+1)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, url, nil, headers)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	return c.Request(ctx, http.MethodPost, url, body, headers)
}

// FetchBody performs a GET and returns the response body. Non-2xx statuses
// are returned as errors (404 maps to errors.ErrNotFound so callers can
// distinguish "no data" from real failures). Responses go through the GET
// cache when enabled.
func (c *Client) FetchBody(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if c.getCache != nil {
		if v, ok := c.getCache.Get(url); ok {
			c.logger.Debug("cache hit", "url", url)
			return v.([]byte), nil
		}
	}

	resp, err := c.Get(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrapf(errors.ErrNotFound, "GET %s", url)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Wrapf(errors.ErrUnauthorized, "GET %s returned %d", url, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, errors.Errorf("GET %s returned HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read body from %s", url)
	}

	if c.getCache != nil {
		c.getCache.Set(url, body, c.config.CacheTTL)
	}
	return body, nil
}

func (c *Client) isRetryableStatus(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func (c *Client) shouldRetry(attempt int, err error, resp *http.Response) bool {
	if attempt >= c.config.MaxRetries {
		return false
	}
	if err != nil {
		return true
	}
	return c.isRetryableStatus(resp)
}

// backoff implements exponential backoff.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	d := time.Duration(float64(c.config.RetryBackoff) * math.Pow(2, float64(attempt)))
	if d > c.config.MaxRetryBackoff {
		d = c.config.MaxRetryBackoff
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
