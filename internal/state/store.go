package state

import (
	"fmt"
	"strings"

	"github.com/rniirs/news-harvester/internal/domain"
)

// Package state persists per-source crawl state: the processed link set and
// whether the initial backfill has completed.

// Store keeps ingestion state keyed by source id.
type Store interface {
	ProcessedLinks(source string) (domain.LinkSet, error)
	SaveProcessedLinks(source string, links domain.LinkSet) error
	InitialLoadCompleted(source string) (bool, error)
	SetInitialLoadCompleted(source string, done bool) error
	Close() error
}

const (
	TypeFile   = "file"
	TypeBBolt  = "bbolt"
	TypeMemory = "memory"
)

// NewStore creates the configured state backend. path is a directory for the
// file store and a database file for bbolt.
func NewStore(typ, path string) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", TypeFile:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("file state requires a directory")
		}
		return openFileStore(path)
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt state requires a path")
		}
		return openBolt(path)
	case TypeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported state type %q", typ)
	}
}

func checkSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("source id is empty")
	}
	if strings.ContainsAny(source, `/\`) {
		return fmt.Errorf("source id %q contains a path separator", source)
	}
	return nil
}
