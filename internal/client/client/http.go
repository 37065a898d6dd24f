package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// LeveledSlog adapts slog to retryablehttp's LeveledLogger.
type LeveledSlog struct {
	inner *slog.Logger
}

func (l LeveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

func (l LeveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// NewRetryClient builds the HTTP client used for every remote call. It
// never retries: a failed call fails fast and callers route around it.
func NewRetryClient(timeout time.Duration, logger *slog.Logger) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = cleanhttp.DefaultPooledClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = 0
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = retryablehttp.LeveledLogger(LeveledSlog{inner: logger.With("subsystem", "http")})
	return rc
}

// HTTPClient talks to the Counter API at a base URL such as
// "https://example.com/api/views".
type HTTPClient struct {
	baseURL string
	http    *retryablehttp.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, http: NewRetryClient(timeout, logger)}
}

func (c *HTTPClient) endpoint(action string, sel common.Selector) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: bad base url: %v", common.ErrRemoteUnavailable, err)
	}
	q := u.Query()
	if action != "" {
		q.Set("action", action)
	}
	if sel.IsTitle() {
		q.Set("postTitle", sel.Title)
	} else if sel.ID != "" {
		q.Set("postId", sel.ID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *HTTPClient) call(ctx context.Context, action string, sel common.Selector) (int64, error) {
	if err := sel.Validate(); err != nil {
		return 0, err
	}

	target, err := c.endpoint(action, sel)
	if err != nil {
		return 0, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err := mapError(resp, err); err != nil {
		return 0, err
	}

	var body struct {
		Views *int64 `json:"views"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", common.ErrRemoteUnavailable, err)
	}
	if body.Views == nil {
		return 0, fmt.Errorf("%w: response without views", common.ErrRemoteUnavailable)
	}
	return *body.Views, nil
}

func (c *HTTPClient) Get(ctx context.Context, sel common.Selector) (int64, error) {
	return c.call(ctx, common.ActionGet, sel)
}

func (c *HTTPClient) Increment(ctx context.Context, sel common.Selector) (int64, error) {
	return c.call(ctx, common.ActionIncrement, sel)
}

// Ping reports whether the API answers at all. Any non-5xx response counts:
// a bare request is expected to be rejected with 400.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", common.ErrRemoteUnavailable, resp.StatusCode)
	}
	return nil
}
