package publishers

import "context"

// Publisher sends record batches to a downstream sink (HTTP API, file, queue).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
