package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
)

// Config configures a Client. It is copied by New and never mutated afterwards.
type Config struct {
	BaseURL string
	// Timeout bounds each attempt; zero means 30s.
	Timeout time.Duration
	// Retries is the default number of extra attempts after a 5xx response.
	Retries int
	// RetryDelay is the flat pause between attempts; zero means 500ms.
	RetryDelay      time.Duration
	Transformers    []RequestTransformer
	Transport       Transport
	Logger          Logger
	FailureHandlers []FailureHandler
}

// FailureEvent describes the final failure of a call, after retries.
type FailureEvent struct {
	Method string
	// URL is the redacted request path.
	URL        string
	StatusCode int
	Attempts   int
	Data       any
	Err        error
}

// FailureHandler observes failed calls. It must not block for long.
type FailureHandler func(ctx context.Context, evt FailureEvent)

// Client issues requests against a fixed base URL.
type Client struct {
	baseURL         string
	timeout         time.Duration
	retries         int
	retryDelay      time.Duration
	transformers    []RequestTransformer
	transport       Transport
	log             Logger
	failureHandlers []FailureHandler
}

// New builds a Client from cfg, applying defaults.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrBaseURLRequired
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("httpclient: retries must not be negative, got %d", cfg.Retries)
	}
	if cfg.Timeout < 0 || cfg.RetryDelay < 0 {
		return nil, fmt.Errorf("httpclient: timeout and retry delay must not be negative")
	}

	c := &Client{
		baseURL:         base,
		timeout:         cfg.Timeout,
		retries:         cfg.Retries,
		retryDelay:      cfg.RetryDelay,
		transformers:    append([]RequestTransformer(nil), cfg.Transformers...),
		transport:       cfg.Transport,
		log:             ensureLogger(cfg.Logger),
		failureHandlers: append([]FailureHandler(nil), cfg.FailureHandlers...),
	}
	if c.timeout == 0 {
		c.timeout = defaultTimeout
	}
	if c.retryDelay == 0 {
		c.retryDelay = defaultRetryDelay
	}
	if c.transport == nil {
		c.transport = NewRestyTransport()
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *Options) (any, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts)
}

// Post issues a POST request. A body other than nil or "" is JSON encoded,
// replacing any caller Content-Type, unless opts.Body is set. Other zero values
// such as 0 or false are still encoded.
func (c *Client) Post(ctx context.Context, path string, body any, opts *Options) (any, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any, opts *Options) (any, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any, opts *Options) (any, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts *Options) (any, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts)
}

// Do runs the full request pipeline with the retry policy applied. It returns
// the parsed body on 2xx, an *HTTPError for other statuses, or the transport
// error unchanged.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts *Options) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method = strings.ToUpper(method)

	opts, err := replayableBody(opts)
	if err != nil {
		return nil, err
	}

	retries := c.retries
	if opts != nil && opts.Retries != nil {
		retries = *opts.Retries
	}

	data, attempts, err := c.withRetry(ctx, retries, func() (any, error) {
		return c.doRequest(ctx, method, path, body, opts)
	})
	if err != nil {
		c.notifyFailure(ctx, method, path, attempts, err)
		return nil, err
	}
	return data, nil
}

// doRequest performs one attempt: encode, transform, send, parse, classify.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, opts *Options) (any, error) {
	req := newRequest(method, path, opts)

	if hasBody(body) && req.Body == nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body for %s %s: %w", method, RedactURL(path), err)
		}
		req.Body = string(payload)
		setHeader(req.Headers, "Content-Type", "application/json")
	}

	for _, transform := range c.transformers {
		next, err := transform(ctx, req)
		if err != nil {
			return nil, err
		}
		if next != nil {
			req = next
		}
	}
	// Transformers may decorate the request but never retarget it.
	req.Method = method
	req.Path = path

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.transport.Do(attemptCtx, method, c.baseURL+path, req.Headers, req.Body)
	if err != nil {
		c.log.DebugObj("http request failed", "http_transport_error", map[string]any{
			"method": method,
			"url":    RedactURL(path),
			"error":  err.Error(),
		})
		return nil, err
	}

	data := parseBody(resp.Body())
	status := resp.StatusCode()
	c.log.DebugObj("http request completed", "http_response", map[string]any{
		"method": method,
		"url":    RedactURL(path),
		"status": status,
	})
	if status < 200 || status > 299 {
		return nil, newHTTPError(status, path, req, data)
	}
	return data, nil
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// the retry budget is spent. It reports how many attempts were made.
func (c *Client) withRetry(ctx context.Context, retries int, fn func() (any, error)) (any, int, error) {
	attempts := 0
	for {
		attempts++
		data, err := fn()
		if err == nil {
			return data, attempts, nil
		}
		if retries <= 0 {
			return nil, attempts, err
		}
		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || !httpErr.Retryable() {
			return nil, attempts, err
		}

		retries--
		c.log.WarnObj("retrying http request", "http_retry", map[string]any{
			"method":            httpErr.Request.Method,
			"url":               RedactURL(httpErr.URL),
			"status":            httpErr.StatusCode,
			"attempt":           attempts,
			"retries_remaining": retries,
			"delay_ms":          c.retryDelay.Milliseconds(),
		})
		if err := c.sleep(ctx); err != nil {
			return nil, attempts, err
		}
	}
}

// sleep waits for the retry delay or until ctx is done.
func (c *Client) sleep(ctx context.Context) error {
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) notifyFailure(ctx context.Context, method, path string, attempts int, err error) {
	evt := FailureEvent{
		Method:   method,
		URL:      RedactURL(path),
		Attempts: attempts,
		Err:      err,
	}
	if httpErr, ok := IsHTTPError(err); ok {
		evt.StatusCode = httpErr.StatusCode
		evt.Data = httpErr.Data
	}
	for _, h := range c.failureHandlers {
		if h != nil {
			h(ctx, evt)
		}
	}
}

// parseBody decodes JSON when possible and falls back to the raw text.
// An empty body yields "".
func parseBody(raw []byte) any {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// Decode converts a parsed body into T by round-tripping through JSON.
func Decode[T any](data any) (T, error) {
	var out T
	raw, err := json.Marshal(data)
	if err != nil {
		return out, fmt.Errorf("re-encode response data: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response data: %w", err)
	}
	return out, nil
}
