// Package tokenstore keeps per-session access tokens for outbound API calls.
package tokenstore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store maps session ids to access tokens.
type Store interface {
	Close() error
	Token(sessionID string) (string, bool, error)
	SaveToken(sessionID, token string) error
	DeleteToken(sessionID string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TokenTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTokenTTL        = 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt token store requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported token store type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                       { return nil }
func (noopStore) Token(string) (string, bool, error) { return "", false, nil }
func (noopStore) SaveToken(string, string) error     { return nil }
func (noopStore) DeleteToken(string) error           { return nil }

type sessionKey struct{}

// WithSession attaches the caller's session id to ctx.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session id stored by WithSession.
func SessionFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// Source resolves the token for the session carried by ctx. It satisfies
// httpclient.TokenSource. Requests without a session, or with an unknown or
// expired one, go out unauthenticated.
type Source struct {
	store Store
}

// NewSource wraps store as a token source.
func NewSource(store Store) *Source {
	if store == nil {
		store = noopStore{}
	}
	return &Source{store: store}
}

// Token implements httpclient.TokenSource.
func (s *Source) Token(ctx context.Context) (string, error) {
	id, ok := SessionFromContext(ctx)
	if !ok {
		return "", nil
	}
	token, found, err := s.store.Token(id)
	if err != nil {
		return "", fmt.Errorf("lookup token: %w", err)
	}
	if !found {
		return "", nil
	}
	return token, nil
}
