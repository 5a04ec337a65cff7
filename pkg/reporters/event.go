package reporters

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

const maxSummaryLen = 512

// Event represents the failure payload published downstream. Every URL in it
// is redacted.
type Event struct {
	App        string    `json:"app,omitempty"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code,omitempty"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error"`
	Summary    string    `json:"summary,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent builds an Event from a client failure.
func NewEvent(app string, f httpclient.FailureEvent) Event {
	return Event{
		App:        app,
		Method:     f.Method,
		URL:        f.URL,
		StatusCode: f.StatusCode,
		Attempts:   f.Attempts,
		Error:      describeError(f.Err),
		Summary:    summarize(f.Data),
		OccurredAt: time.Now().UTC(),
	}
}

// describeError renders err without leaking identifiers from transport URLs.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Sprintf("%s %s: %v", urlErr.Op, redactRawURL(urlErr.URL), urlErr.Err)
	}
	return err.Error()
}

func redactRawURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return httpclient.RedactURL(raw)
	}
	return u.Scheme + "://" + u.Host + httpclient.RedactURL(u.EscapedPath())
}

// summarize produces a short description of a parsed response body. HTML
// error pages are reduced to their title or first heading.
func summarize(data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		if looksLikeHTML(v) {
			if s := htmlSummary(v); s != "" {
				return truncate(s)
			}
		}
		return truncate(strings.TrimSpace(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return truncate(string(raw))
	}
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "<!doctype html") || strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}

func htmlSummary(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	for _, sel := range []string{"title", "h1", "body"} {
		if text := collapseSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) > maxSummaryLen {
		return s[:maxSummaryLen] + "..."
	}
	return s
}
