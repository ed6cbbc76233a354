package publishers

import (
	"context"

	"github.com/rniirs/news-harvester/internal/logger"
)

// noopPublisher accepts every batch and only logs it. Used for dry runs.
type noopPublisher struct {
	id  string
	log logger.Logger
}

func newNoopPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	return NewNoop(cfg.ID, log), nil
}

// NewNoop returns a publisher that discards records.
func NewNoop(id string, log logger.Logger) Publisher {
	if id == "" {
		id = TypeNoop
	}
	return &noopPublisher{id: id, log: logger.Ensure(log)}
}

func (n *noopPublisher) ID() string   { return n.id }
func (n *noopPublisher) Type() string { return TypeNoop }

func (n *noopPublisher) Publish(_ context.Context, evt Event) error {
	titles := make([]string, 0, len(evt.Records))
	for _, r := range evt.Records {
		titles = append(titles, r.Title)
	}
	n.log.InfoObj("dry run batch", "publisher_noop_batch", map[string]any{
		"publisher_id": n.id,
		"source_id":    evt.SourceID,
		"mode":         evt.Mode,
		"records":      len(evt.Records),
		"titles":       titles,
	})
	return nil
}
