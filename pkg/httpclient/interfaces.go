package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Transport issues a single HTTP request. Implementations must honor ctx
// cancellation and return the transport's own error when no response arrives.
type Transport interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error) {
	return f(ctx, method, url, headers, body)
}

// Logger defines the logging surface the client relies on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// StaticResponse is a fixed Response, handy for custom transports and tests.
type StaticResponse struct {
	Status int
	Data   []byte
}

func (r StaticResponse) Body() []byte    { return r.Data }
func (r StaticResponse) StatusCode() int { return r.Status }
