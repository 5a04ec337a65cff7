package httpclient

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrBaseURLRequired is returned by New when Config.BaseURL is empty.
var ErrBaseURLRequired = errors.New("httpclient: base url is required")

// HTTPError is returned when a response arrives with a status outside 2xx.
type HTTPError struct {
	StatusCode int
	// URL is the request path as passed by the caller, without the base URL.
	URL     string
	Request *Request
	// Data holds the parsed response body (decoded JSON or raw text).
	Data any
}

func newHTTPError(status int, path string, req *Request, data any) *HTTPError {
	return &HTTPError{StatusCode: status, URL: path, Request: req, Data: data}
}

// Error renders "HTTP <status>: <METHOD> - <redacted url>".
func (e *HTTPError) Error() string {
	method := ""
	if e.Request != nil {
		method = e.Request.Method
	}
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, method, RedactURL(e.URL))
}

// Retryable reports whether the failure came from the server side.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500
}

// IsHTTPError reports whether err wraps an *HTTPError and returns it.
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

var (
	uuidPattern         = regexp.MustCompile(`\w{8}-\w{4}-\w{4}-\w{4}-\w{12}`)
	encodedEmailPattern = regexp.MustCompile(`.+%40.+\..+`)
)

// RedactURL replaces UUID-like path segments with ":uuid" and percent-encoded
// email segments with ":email" so URLs are safe to log.
func RedactURL(u string) string {
	parts := strings.Split(u, "/")
	for i, part := range parts {
		part = replaceFirst(uuidPattern, part, ":uuid")
		parts[i] = replaceFirst(encodedEmailPattern, part, ":email")
	}
	return strings.Join(parts, "/")
}

// replaceFirst substitutes only the leftmost match, leaving later ones intact.
func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
