package httpclient

import (
	"context"
	"fmt"
	"io"
	"maps"
	"strings"
)

// Request is the in-flight request handed to transformers and echoed on HTTPError.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	// Body is sent as-is by the transport: string, []byte or url.Values.
	// An io.Reader passed in Options.Body is buffered once and arrives here as []byte.
	Body    any
	Retries *int
}

// Clone returns a copy with its own header map.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Headers = maps.Clone(r.Headers)
	if cp.Headers == nil {
		cp.Headers = make(map[string]string)
	}
	return &cp
}

// Options are per-call overrides. A nil *Options is valid.
type Options struct {
	Headers map[string]string
	// Body, when set, is sent verbatim and suppresses JSON encoding of the body argument.
	// io.Reader bodies are read fully before the first attempt so retries resend them.
	Body any
	// Retries overrides Config.Retries for this call.
	Retries *int
}

// Retries is a convenience for filling Options.Retries.
func Retries(n int) *int { return &n }

func newRequest(method, path string, opts *Options) *Request {
	req := &Request{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
	}
	if opts == nil {
		return req
	}
	maps.Copy(req.Headers, opts.Headers)
	req.Body = opts.Body
	req.Retries = opts.Retries
	return req
}

// RequestTransformer inspects or rewrites a request before it is sent.
// Transformers run in declaration order on every attempt.
type RequestTransformer func(ctx context.Context, req *Request) (*Request, error)

// replayableBody buffers an io.Reader body so every attempt sends it in full.
func replayableBody(opts *Options) (*Options, error) {
	if opts == nil {
		return nil, nil
	}
	r, ok := opts.Body.(io.Reader)
	if !ok {
		return opts, nil
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	cp := *opts
	cp.Body = raw
	return &cp, nil
}

// setHeader stores value under name and drops any other case variant of name.
func setHeader(headers map[string]string, name, value string) {
	for k := range headers {
		if strings.EqualFold(k, name) {
			delete(headers, k)
		}
	}
	headers[name] = value
}

// hasBody reports whether body should be JSON encoded. nil and "" mean no body.
func hasBody(body any) bool {
	switch b := body.(type) {
	case nil:
		return false
	case string:
		return b != ""
	default:
		return true
	}
}
