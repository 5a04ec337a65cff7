package reporters

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{name: "nil", data: nil, want: ""},
		{name: "plain text", data: "  upstream timeout \n", want: "upstream timeout"},
		{name: "html title", data: "<!DOCTYPE html><html><head><title>502 Bad Gateway</title></head><body><h1>Oops</h1></body></html>", want: "502 Bad Gateway"},
		{name: "html heading", data: "<html><body><h1>  Service\n Unavailable </h1></body></html>", want: "Service Unavailable"},
		{name: "json object", data: map[string]any{"code": "E1"}, want: `{"code":"E1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summarize(tt.data); got != tt.want {
				t.Fatalf("summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeTruncates(t *testing.T) {
	got := summarize(strings.Repeat("x", maxSummaryLen+10))
	if len(got) != maxSummaryLen+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation, len=%d", len(got))
	}
}

func TestDescribeErrorRedactsTransportURL(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "https://api.example.com/users/123e4567-e89b-12d3-a456-426614174000",
		Err: errors.New("connection refused"),
	}

	got := describeError(err)
	want := "Get https://api.example.com/users/:uuid: connection refused"
	if got != want {
		t.Fatalf("describeError() = %q, want %q", got, want)
	}
	if describeError(nil) != "" {
		t.Fatalf("nil error should describe as empty")
	}
}
