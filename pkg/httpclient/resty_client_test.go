package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRestyTransportSendsJSONThroughClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/users" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %s", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"email":"test@example.com"}` {
			t.Errorf("body = %s", raw)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"u1"}`)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Post(context.Background(), "/api/users", map[string]string{"email": "test@example.com"}, nil)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if !reflect.DeepEqual(res, map[string]any{"id": "u1"}) {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestRestyTransportSendsFormValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("username"); got != "test@example.com" {
			t.Errorf("username = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	form := url.Values{"username": {"test@example.com"}}
	res, err := c.Post(context.Background(), "/login", nil, &Options{Body: form})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if res != "" {
		t.Fatalf("expected empty body, got %#v", res)
	}
}

func TestRestyTransportRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "kaboom", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `"ok"`)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Retries: 1, RetryDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Get(context.Background(), "/flaky", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res != "ok" {
		t.Fatalf("result = %#v", res)
	}
	if hits.Load() != 2 {
		t.Fatalf("hits = %d, want 2", hits.Load())
	}
}

func TestRestyTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Get(context.Background(), "/slow", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRestyTransportRetryResendsReaderBody(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(raw))
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, RetryDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Post(context.Background(), "/upload", nil, &Options{
		Body:    strings.NewReader("payload"),
		Retries: Retries(1),
	})
	if _, ok := IsHTTPError(err); !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(bodies, []string{"payload", "payload"}) {
		t.Fatalf("bodies = %q", bodies)
	}
}
