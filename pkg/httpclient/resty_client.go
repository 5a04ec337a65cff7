package httpclient

import (
	"context"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyTransport adapts resty.Client to the Transport interface.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a Transport backed by a fresh resty client.
// Timeouts and retries are driven by the Client, so resty keeps neither.
func NewRestyTransport() *RestyTransport {
	return &RestyTransport{client: newRestyBaseClient(0)}
}

// NewRestyTransportFrom wraps an already configured resty client.
func NewRestyTransportFrom(c *resty.Client) *RestyTransport {
	if c == nil {
		c = newRestyBaseClient(0)
	}
	return &RestyTransport{client: c}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	c.SetRetryCount(0)
	return c
}

// Do performs an HTTP request with the specified context, method, URL, headers and body.
func (r *RestyTransport) Do(ctx context.Context, method, rawURL string, headers map[string]string, body any) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	switch b := body.(type) {
	case nil:
	case url.Values:
		req.SetFormDataFromValues(b)
	default:
		req.SetBody(b)
	}
	resp, err := req.Execute(method, rawURL)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
