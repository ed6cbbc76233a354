package sources

import (
	"context"

	"github.com/rniirs/news-harvester/internal/domain"
	"github.com/rniirs/news-harvester/internal/logger"
	"github.com/rniirs/news-harvester/pkg/classifier"
	"github.com/rniirs/news-harvester/pkg/httpclient"
)

// Parser fetches and parses one news site. Concrete implementations live in
// site-specific files (e.g., rscf.go). A parser instance serves a single run.
type Parser interface {
	SourceName() string
	FetchListing(ctx context.Context, page int) ([]domain.ListingItem, error)
	FetchDetail(ctx context.Context, link string) (*domain.DetailRecord, error)
	Category(ctx context.Context, item domain.ListingItem) string
}

// ParserRegistry resolves the parser implementation for a given source config.
type ParserRegistry interface {
	Get(cfg Source, deps Deps) (Parser, error)
}

// Constructor builds a fresh parser for one run.
type Constructor func(cfg Source, deps Deps) (Parser, error)

// Deps carries run-scoped collaborators handed to parser constructors.
type Deps struct {
	Client          HTTPClient
	Classifier      classifier.Client
	DefaultCategory string
	Log             logger.Logger
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within sources.
type HTTPClient = httpclient.Client
