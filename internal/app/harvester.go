package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rniirs/news-harvester/internal/config"
	"github.com/rniirs/news-harvester/internal/crawler"
	"github.com/rniirs/news-harvester/internal/logger"
	"github.com/rniirs/news-harvester/internal/state"
	"github.com/rniirs/news-harvester/pkg/classifier"
	"github.com/rniirs/news-harvester/pkg/publishers"
	"github.com/rniirs/news-harvester/pkg/sources"
)

// Harvester is the runtime around the crawler service. It owns the state
// store and the publisher clients and releases both when Run returns.
type Harvester struct {
	cfg      *config.Config
	catalog  *sources.Catalog
	selector *publishers.Selector
	store    state.Store
	crawl    *crawler.Service
	interval time.Duration
	log      logger.Logger
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, err := sources.LoadCatalog(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources catalog: %w", err)
	}
	enabled := catalog.Enabled()
	sourceIDs := make([]string, 0, len(enabled))
	for _, src := range enabled {
		sourceIDs = append(sourceIDs, src.ID)
	}
	log.InfoObj("sources catalog loaded", "sources_meta", map[string]any{
		"count": len(sourceIDs),
		"ids":   sourceIDs,
	})

	selector, err := buildSelector(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		_ = selector.Close()
		return nil, err
	}

	var cls classifier.Client
	if cfg.ClassifierURL != "" {
		cls = classifier.NewHTTPClient(cfg.ClassifierURL, cfg.ClassifierTimeout)
	} else {
		log.WarnObj("classifier disabled; default categories will be used", "default_category", cfg.DefaultCategory)
	}

	orch, err := crawler.NewOrchestrator(crawler.Deps{
		Parsers:    sources.DefaultRegistry(),
		Store:      store,
		Publishers: selector,
		Classifier: cls,
		Log:        log,
	}, crawler.Options{
		BackfillPages:   cfg.Backfill,
		Concurrency:     cfg.Workers,
		BatchSize:       cfg.BatchSize,
		Novelty:         cfg.Novelty,
		DefaultCategory: cfg.DefaultCategory,
		HTTPTimeout:     cfg.HTTPTimeout,
	})
	if err != nil {
		_ = store.Close()
		_ = selector.Close()
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	return &Harvester{
		cfg:      cfg,
		catalog:  catalog,
		selector: selector,
		store:    store,
		crawl:    crawler.NewService(orch, log),
		interval: cfg.CrawlInterval,
		log:      log,
	}, nil
}

func buildSelector(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Selector, error) {
	if cfg.DryRun {
		log.InfoObj("dry run enabled; records are logged, not delivered", "publishers_file", cfg.PublishersFile)
		return publishers.NewSelector(publishers.NewNoop("dry-run", log)), nil
	}

	reg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	selector, err := publishers.BuildSelector(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]any{
			"id":    pubCfg.ID,
			"type":  pubCfg.Type,
			"modes": pubCfg.Modes,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return selector, nil
}

func openStore(cfg *config.Config, log logger.Logger) (state.Store, error) {
	if cfg.DryRun {
		log.InfoObj("state store initialized", "state_config", map[string]any{"type": state.TypeMemory})
		return state.NewMemoryStore(), nil
	}
	store, err := state.NewStore(cfg.StateType, cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("init state store: %w", err)
	}
	log.InfoObj("state store initialized", "state_config", map[string]any{
		"type": cfg.StateType,
		"path": cfg.StatePath,
	})
	return store, nil
}

// Run executes one crawl pass, or keeps crawling on a ticker in loop mode
// until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.crawl == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	srcs := h.catalog.Enabled()
	if len(srcs) == 0 {
		h.log.WarnObj("no sources enabled; nothing to crawl", "sources_file", h.cfg.SourcesFile)
		return nil
	}

	if h.cfg.RunMode != config.RunModeLoop {
		_, err := h.runOnce(ctx, srcs)
		return err
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"sources_count":  len(srcs),
		"crawl_interval": h.interval.String(),
	})

	if _, err := h.runOnce(ctx, srcs); err != nil {
		h.log.ErrorObj("initial crawl failed", "error", err)
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := h.runOnce(ctx, srcs); err != nil {
				h.log.ErrorObj("scheduled crawl failed", "error", err)
			}
		}
	}
}

// runOnce performs a single crawl pass across all sources. Source failures
// stay in the reports; only a pass that could not start is an error.
func (h *Harvester) runOnce(ctx context.Context, srcs []sources.Source) ([]crawler.Report, error) {
	reports, err := h.crawl.Run(ctx, srcs)
	if err != nil {
		return nil, err
	}

	var failed int
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		h.log.WarnObj("crawl pass finished with failures", "crawl_meta", map[string]any{
			"sources_count": len(reports),
			"failed":        failed,
		})
	}
	return reports, nil
}

func (h *Harvester) close() {
	if h == nil {
		return
	}
	var errs []error
	if h.store != nil {
		errs = append(errs, h.store.Close())
	}
	if h.selector != nil {
		errs = append(errs, h.selector.Close())
	}
	if err := errors.Join(errs...); err != nil {
		h.log.ErrorObj("harvester shutdown failed", "error", err)
	}
}
