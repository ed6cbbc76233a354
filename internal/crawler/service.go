package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/rniirs/news-harvester/internal/logger"
	"github.com/rniirs/news-harvester/pkg/sources"
	"golang.org/x/sync/errgroup"
)

// SourceRunner runs one ingestion cycle for a source.
type SourceRunner interface {
	Run(ctx context.Context, src sources.Source) (Report, error)
}

// Service coordinates crawling across multiple sources.
type Service struct {
	runner SourceRunner
	log    logger.Logger
}

// NewService wires a crawler around a per-source runner.
func NewService(runner SourceRunner, log logger.Logger) *Service {
	return &Service{runner: runner, log: logger.Ensure(log)}
}

// Run executes a crawl pass for every enabled source concurrently. Per-source
// failures are reported in the returned reports, not as an error.
func (s *Service) Run(ctx context.Context, srcs []sources.Source) ([]Report, error) {
	if s == nil || s.runner == nil {
		return nil, fmt.Errorf("crawler service is not initialized")
	}

	enabled := make([]sources.Source, 0, len(srcs))
	for _, src := range srcs {
		if src.EnabledValue() {
			enabled = append(enabled, src)
		}
	}
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no sources configured for crawling")
	}

	start := time.Now()
	reports := make([]Report, len(enabled))

	var g errgroup.Group
	for idx, src := range enabled {
		idx, src := idx, src
		g.Go(func() error {
			rep, err := s.runner.Run(ctx, src)
			rep.SourceID = src.ID
			rep.Err = err
			reports[idx] = rep

			if err != nil {
				s.log.ErrorObj("source crawl failed", "source_result", rep.logFields())
			} else {
				s.log.InfoObj("source crawl completed", "source_result", rep.logFields())
			}
			return nil
		})
	}
	_ = g.Wait()

	s.log.InfoObj("crawl pass finished", "crawl_meta", map[string]any{
		"sources_count": len(enabled),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return reports, nil
}
