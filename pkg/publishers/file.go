package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rniirs/news-harvester/internal/domain"
	"github.com/rniirs/news-harvester/internal/logger"
)

// filePublisher appends records to <dir>/news_<source>.json, kept as one
// JSON array per source.
type filePublisher struct {
	id  string
	dir string
	mu  sync.Mutex
	log logger.Logger
}

func newFilePublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	dir := fileDefaultDir
	if cfg.File != nil && strings.TrimSpace(cfg.File.Dir) != "" {
		dir = strings.TrimSpace(cfg.File.Dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump directory for publisher %q: %w", cfg.ID, err)
	}
	return &filePublisher{id: cfg.ID, dir: dir, log: logger.Ensure(log)}, nil
}

func (f *filePublisher) ID() string   { return f.id }
func (f *filePublisher) Type() string { return TypeFile }

// DumpPath returns the dump file for a source.
func (f *filePublisher) DumpPath(sourceID string) string {
	return filepath.Join(f.dir, "news_"+sourceID+".json")
}

func (f *filePublisher) Publish(_ context.Context, evt Event) error {
	if strings.TrimSpace(evt.SourceID) == "" || strings.ContainsAny(evt.SourceID, `/\`) {
		return fmt.Errorf("invalid source id %q for file dump", evt.SourceID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.DumpPath(evt.SourceID)
	var existing []domain.NewsRecord
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read dump %s: %w", path, err)
	case len(strings.TrimSpace(string(raw))) > 0:
		if err := json.Unmarshal(raw, &existing); err != nil {
			return fmt.Errorf("decode dump %s: %w", path, err)
		}
	}

	existing = append(existing, evt.Records...)
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace dump: %w", err)
	}

	f.log.DebugObj("file publisher appended batch", "publisher_file_delivery", map[string]any{
		"publisher_id": f.id,
		"path":         path,
		"records":      len(evt.Records),
		"total":        len(existing),
	})
	return nil
}
