package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Package sources contains pluggable news source configs (YAML/JSON), the
// per-site parsers and the registry resolving a config to its parser.

// PagePlaceholder marks where the page number goes in a listing URL.
const PagePlaceholder = "{page}"

type Source struct {
	ID              string         `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	Type            string         `json:"type" yaml:"type"`
	BaseURL         string         `json:"base_url" yaml:"base_url"`
	ListingURL      string         `json:"listing_url" yaml:"listing_url"`
	RequestDelayMs  int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	BackfillPages   int            `json:"backfill_pages" yaml:"backfill_pages"`
	DefaultCategory string         `json:"default_category" yaml:"default_category"`
	Enabled         *bool          `json:"enabled" yaml:"enabled"`
	Config          map[string]any `json:"config" yaml:"config"`
}

type catalogFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

// Catalog holds the source definitions loaded from a config file.
type Catalog struct {
	mu      sync.RWMutex
	sources []Source
	idx     map[string]Source
}

// LoadCatalog loads the source catalog from a YAML/JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	parsed, err := parseCatalog(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewCatalog(parsed.Sources)
}

// NewCatalog validates and indexes the given sources.
func NewCatalog(list []Source) (*Catalog, error) {
	if len(list) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	c := &Catalog{
		sources: make([]Source, 0, len(list)),
		idx:     make(map[string]Source, len(list)),
	}
	for i := range list {
		s := sanitizeSource(list[i])
		if err := validateSource(s); err != nil {
			return nil, fmt.Errorf("source[%d]: %w", i, err)
		}
		if _, exists := c.idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		c.sources = append(c.sources, s)
		c.idx[s.ID] = s
	}
	return c, nil
}

// All returns a copy of every configured source.
func (c *Catalog) All() []Source {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// Enabled returns sources that are enabled.
func (c *Catalog) Enabled() []Source {
	all := c.All()
	out := make([]Source, 0, len(all))
	for _, s := range all {
		if s.EnabledValue() {
			out = append(out, s)
		}
	}
	return out
}

// ByID returns the source entry for the given id, if loaded.
func (c *Catalog) ByID(id string) (Source, bool) {
	id = strings.TrimSpace(id)
	if c == nil || id == "" {
		return Source{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.idx[id]
	return s, ok
}

func parseCatalog(data []byte, ext string) (catalogFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalCatalog(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return catalogFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalCatalog(name string, data []byte, fn unmarshalFn) (catalogFile, error) {
	var reg catalogFile
	if err := fn(data, &reg); err != nil {
		return catalogFile{}, fmt.Errorf("decode %s sources: %w", name, err)
	}
	return reg, nil
}

func sanitizeSource(s Source) Source {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	s.ListingURL = strings.TrimSpace(s.ListingURL)
	s.DefaultCategory = strings.TrimSpace(s.DefaultCategory)

	if s.Config == nil {
		s.Config = map[string]any{}
	}
	if s.RequestDelayMs < 0 {
		s.RequestDelayMs = 0
	}
	if s.BackfillPages < 0 {
		s.BackfillPages = 0
	}
	return s
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("name is required for source %q", s.ID)
	}
	if s.Type == "" {
		return fmt.Errorf("type is required for source %q", s.ID)
	}
	if s.BaseURL == "" {
		return fmt.Errorf("base_url is required for source %q", s.ID)
	}
	if !strings.Contains(s.ListingURL, PagePlaceholder) {
		return fmt.Errorf("listing_url for source %q must contain %s", s.ID, PagePlaceholder)
	}
	return nil
}

// EnabledValue returns enabled flag defaulting to true.
func (s Source) EnabledValue() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// PageURL renders the listing URL for a 1-based page number.
func (s Source) PageURL(page int) string {
	return strings.ReplaceAll(s.ListingURL, PagePlaceholder, strconv.Itoa(page))
}

// RequestDelay returns the minimum spacing between requests to this source.
// Zero disables pacing.
func (s Source) RequestDelay() time.Duration {
	if s.RequestDelayMs <= 0 {
		return 0
	}
	return time.Duration(s.RequestDelayMs) * time.Millisecond
}

// Pages returns the number of listing pages a backfill run covers.
func (s Source) Pages(fallback int) int {
	if s.BackfillPages > 0 {
		return s.BackfillPages
	}
	return fallback
}
