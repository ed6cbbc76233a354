package publishers

import (
	"time"

	"github.com/rniirs/news-harvester/internal/domain"
)

// Event is one batch of records handed to downstream sinks.
type Event struct {
	SourceID    string              `json:"source_id"`
	SourceName  string              `json:"source_name"`
	Mode        domain.Mode         `json:"mode"`
	Records     []domain.NewsRecord `json:"records"`
	CollectedAt time.Time           `json:"collected_at"`
}

// NewEvent constructs an Event for a batch of records from one source run.
func NewEvent(sourceID, sourceName string, mode domain.Mode, records []domain.NewsRecord) Event {
	return Event{
		SourceID:    sourceID,
		SourceName:  sourceName,
		Mode:        mode,
		Records:     records,
		CollectedAt: time.Now().UTC(),
	}
}
