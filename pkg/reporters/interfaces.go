package reporters

import "context"

// Reporter sends failure events to a downstream sink (SQS, HTTP, etc).
type Reporter interface {
	ID() string
	Type() string
	Report(ctx context.Context, evt Event) error
}
