// internal/platform/httpclient/httpclient_test.go
package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rastro/internal/platform/errors"
	"rastro/internal/platform/logx"
	"rastro/internal/testutil"
)

func newTestClient(maxRetries int) *Client {
	return New(Config{
		Timeout:         5 * time.Second,
		MaxRetries:      maxRetries,
		RetryBackoff:    time.Millisecond,
		MaxRetryBackoff: time.Millisecond,
	}, logx.NewSilent())
}

func TestRequestRetryReplaysBody(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(1)
	resp, err := c.Post(context.Background(), srv.URL, strings.NewReader(`{"url":"http://x.test"}`), nil)
	testutil.AssertNoError(t, err, "post succeeds on retry")
	resp.Body.Close()

	testutil.AssertEqual(t, len(bodies), 2, "two attempts reach the server")
	testutil.AssertEqual(t, bodies[0], `{"url":"http://x.test"}`, "first attempt carries the payload")
	testutil.AssertEqual(t, bodies[1], `{"url":"http://x.test"}`, "retried attempt carries the same payload")
}

func TestRequestDoesNotRetryClientErrors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(2)
	resp, err := c.Get(context.Background(), srv.URL, nil)
	testutil.AssertNoError(t, err, "non-retryable status is returned, not retried")
	resp.Body.Close()

	testutil.AssertEqual(t, hits, 1, "single attempt for HTTP 400")
}

func TestFetchBodyStatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/denied":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(0)

	_, err := c.FetchBody(context.Background(), srv.URL+"/missing", nil)
	testutil.AssertTrue(t, errors.Is(err, errors.ErrNotFound), "404 maps to ErrNotFound")

	_, err = c.FetchBody(context.Background(), srv.URL+"/denied", nil)
	testutil.AssertTrue(t, errors.Is(err, errors.ErrUnauthorized), "403 maps to ErrUnauthorized")

	body, err := c.FetchBody(context.Background(), srv.URL+"/ok", nil)
	testutil.AssertNoError(t, err, "2xx returns the body")
	testutil.AssertEqual(t, string(body), `{"ok":true}`, "body passthrough")
}
