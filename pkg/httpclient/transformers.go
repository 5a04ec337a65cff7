package httpclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// HeaderXRequestID is the default header used by WithRequestID.
const HeaderXRequestID = "X-Request-ID"

// TokenSource yields the access token for the current request context.
// An empty token with a nil error means "send unauthenticated".
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// WithHeaders sets fixed headers, overwriting earlier values.
func WithHeaders(headers map[string]string) RequestTransformer {
	fixed := make(map[string]string, len(headers))
	for k, v := range headers {
		if k = strings.TrimSpace(k); k != "" {
			fixed[k] = v
		}
	}
	return func(_ context.Context, req *Request) (*Request, error) {
		out := req.Clone()
		for k, v := range fixed {
			setHeader(out.Headers, k, v)
		}
		return out, nil
	}
}

// WithBearerToken sets "Authorization: Bearer <token>" from src.
func WithBearerToken(src TokenSource) RequestTransformer {
	return func(ctx context.Context, req *Request) (*Request, error) {
		if src == nil {
			return req, nil
		}
		token, err := src.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve access token: %w", err)
		}
		if token == "" {
			return req, nil
		}
		out := req.Clone()
		setHeader(out.Headers, "Authorization", "Bearer "+token)
		return out, nil
	}
}

type requestIDKey struct{}

// WithRequestIDContext stores a request id for WithRequestID to propagate.
func WithRequestIDContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored by WithRequestIDContext.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// WithRequestID sets header (X-Request-ID when empty) unless the request
// already carries it. The id comes from ctx or is freshly generated.
func WithRequestID(header string) RequestTransformer {
	if header == "" {
		header = HeaderXRequestID
	}
	return func(ctx context.Context, req *Request) (*Request, error) {
		if _, ok := req.Headers[header]; ok {
			return req, nil
		}
		id, ok := RequestIDFromContext(ctx)
		if !ok {
			id = uuid.NewString()
		}
		out := req.Clone()
		out.Headers[header] = id
		return out, nil
	}
}
