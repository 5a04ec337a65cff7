package reporters

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

// Headers attached to every webhook delivery.
const (
	headerReporterID    = "X-Reporter-ID"
	headerFailureStatus = "X-Failure-Status"
)

// httpReporter posts events to a webhook through an httpclient.Client, so
// deliveries get the same 5xx retry policy as the calls being reported.
type httpReporter struct {
	id     string
	typ    string
	method string
	path   string
	client *httpclient.Client
	log    Logger
}

func newHTTPReporter(_ context.Context, cfg ReporterConfig, log Logger) (Reporter, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("reporter %q missing http configuration", cfg.ID)
	}

	base, path, err := splitWebhookURL(cfg.HTTP.URL)
	if err != nil {
		return nil, fmt.Errorf("reporter %q: %w", cfg.ID, err)
	}

	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	log = ensureLogger(log)

	client, err := httpclient.New(httpclient.Config{
		BaseURL:    base,
		Timeout:    timeout,
		Retries:    cfg.HTTP.Retries,
		RetryDelay: time.Duration(cfg.HTTP.RetryDelayMs) * time.Millisecond,
		Transport:  httpclient.NewRestyTransportFrom(httpclient.NewRestyHTTPClient(timeout)),
		Transformers: []httpclient.RequestTransformer{
			httpclient.WithHeaders(cfg.HTTP.Headers),
			httpclient.WithRequestID(httpclient.HeaderXRequestID),
		},
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("reporter %q: build client: %w", cfg.ID, err)
	}

	return &httpReporter{
		id:     cfg.ID,
		typ:    TypeHTTP,
		method: method,
		path:   path,
		client: client,
		log:    log,
	}, nil
}

// splitWebhookURL separates scheme and host from the path and query so the
// path survives base URL normalization untouched.
func splitWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("webhook url %q must be absolute", raw)
	}
	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return u.Scheme + "://" + u.Host, path, nil
}

func (h *httpReporter) ID() string   { return h.id }
func (h *httpReporter) Type() string { return h.typ }

// Report delivers evt as JSON. The failed call's request id, when known, is
// reused as the delivery's X-Request-ID so receivers can correlate both.
func (h *httpReporter) Report(ctx context.Context, evt Event) error {
	if evt.RequestID != "" {
		ctx = httpclient.WithRequestIDContext(ctx, evt.RequestID)
	}
	opts := &httpclient.Options{Headers: map[string]string{
		headerReporterID:    h.id,
		headerFailureStatus: strconv.Itoa(evt.StatusCode),
	}}

	_, err := h.client.Do(ctx, h.method, h.path, evt, opts)
	if err != nil {
		if herr, ok := httpclient.IsHTTPError(err); ok {
			return fmt.Errorf("webhook rejected event: %w (%s)", err, summarize(herr.Data))
		}
		return fmt.Errorf("http request: %w", err)
	}
	h.log.DebugObj("http reporter delivered event", "reporter_http_delivery", map[string]any{
		"reporter_id": h.id,
		"request_id":  evt.RequestID,
	})
	return nil
}
