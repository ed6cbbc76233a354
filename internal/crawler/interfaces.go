package crawler

import (
	"time"

	"github.com/rniirs/news-harvester/internal/domain"
)

// Report summarizes one source run.
type Report struct {
	SourceID       string        `json:"source_id"`
	Mode           domain.Mode   `json:"mode"`
	PagesFetched   int           `json:"pages_fetched"`
	PagesFailed    int           `json:"pages_failed"`
	Discovered     int           `json:"discovered"`
	New            int           `json:"new"`
	Delivered      int           `json:"delivered"`
	DetailFailures int           `json:"detail_failures"`
	Undelivered    int           `json:"undelivered"`
	Elapsed        time.Duration `json:"elapsed"`
	Err            error         `json:"-"`
}

func (r Report) logFields() map[string]any {
	fields := map[string]any{
		"source_id":       r.SourceID,
		"mode":            r.Mode,
		"pages_fetched":   r.PagesFetched,
		"pages_failed":    r.PagesFailed,
		"discovered":      r.Discovered,
		"new":             r.New,
		"delivered":       r.Delivered,
		"detail_failures": r.DetailFailures,
		"undelivered":     r.Undelivered,
		"elapsed_ms":      r.Elapsed.Milliseconds(),
	}
	if r.Err != nil {
		fields["error"] = r.Err.Error()
	}
	return fields
}
