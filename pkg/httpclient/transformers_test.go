package httpclient

import (
	"context"
	"errors"
	"testing"
)

func TestWithHeadersOverwrites(t *testing.T) {
	transform := WithHeaders(map[string]string{"User-Agent": "samvad", " ": "ignored"})
	in := &Request{Headers: map[string]string{"User-Agent": "old", "Accept": "json"}}

	out, err := transform(context.Background(), in)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out.Headers["User-Agent"] != "samvad" || out.Headers["Accept"] != "json" {
		t.Fatalf("unexpected headers %#v", out.Headers)
	}
	if len(out.Headers) != 2 {
		t.Fatalf("blank header names must be dropped, got %#v", out.Headers)
	}
	if in.Headers["User-Agent"] != "old" {
		t.Fatalf("input request must not be mutated")
	}
}

func TestWithHeadersReplacesCaseVariants(t *testing.T) {
	transform := WithHeaders(map[string]string{"User-Agent": "samvad"})
	out, err := transform(context.Background(), &Request{Headers: map[string]string{"user-agent": "old"}})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if len(out.Headers) != 1 || out.Headers["User-Agent"] != "samvad" {
		t.Fatalf("expected a single User-Agent key, got %#v", out.Headers)
	}
}

func TestWithBearerToken(t *testing.T) {
	t.Run("sets authorization", func(t *testing.T) {
		transform := WithBearerToken(TokenSourceFunc(func(context.Context) (string, error) { return "abc", nil }))
		out, err := transform(context.Background(), &Request{Headers: map[string]string{}})
		if err != nil {
			t.Fatalf("transform: %v", err)
		}
		if got := out.Headers["Authorization"]; got != "Bearer abc" {
			t.Fatalf("Authorization = %q", got)
		}
	})

	t.Run("empty token leaves request untouched", func(t *testing.T) {
		transform := WithBearerToken(TokenSourceFunc(func(context.Context) (string, error) { return "", nil }))
		out, err := transform(context.Background(), &Request{Headers: map[string]string{}})
		if err != nil {
			t.Fatalf("transform: %v", err)
		}
		if _, ok := out.Headers["Authorization"]; ok {
			t.Fatalf("Authorization should not be set")
		}
	})

	t.Run("source error propagates", func(t *testing.T) {
		boom := errors.New("store offline")
		transform := WithBearerToken(TokenSourceFunc(func(context.Context) (string, error) { return "", boom }))
		if _, err := transform(context.Background(), &Request{Headers: map[string]string{}}); !errors.Is(err, boom) {
			t.Fatalf("expected source error, got %v", err)
		}
	})
}

func TestWithRequestID(t *testing.T) {
	t.Run("uses id from context", func(t *testing.T) {
		ctx := WithRequestIDContext(context.Background(), "req-123")
		out, err := WithRequestID("")(ctx, &Request{Headers: map[string]string{}})
		if err != nil {
			t.Fatalf("transform: %v", err)
		}
		if got := out.Headers[HeaderXRequestID]; got != "req-123" {
			t.Fatalf("%s = %q", HeaderXRequestID, got)
		}
	})

	t.Run("generates id when absent", func(t *testing.T) {
		out, err := WithRequestID("X-Trace")(context.Background(), &Request{Headers: map[string]string{}})
		if err != nil {
			t.Fatalf("transform: %v", err)
		}
		if out.Headers["X-Trace"] == "" {
			t.Fatalf("expected generated id")
		}
	})

	t.Run("keeps existing header", func(t *testing.T) {
		in := &Request{Headers: map[string]string{HeaderXRequestID: "existing"}}
		out, err := WithRequestID("")(WithRequestIDContext(context.Background(), "new"), in)
		if err != nil {
			t.Fatalf("transform: %v", err)
		}
		if got := out.Headers[HeaderXRequestID]; got != "existing" {
			t.Fatalf("%s = %q", HeaderXRequestID, got)
		}
	})
}
