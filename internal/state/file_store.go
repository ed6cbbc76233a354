package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rniirs/news-harvester/internal/domain"
)

type processedLinksFile struct {
	ProcessedLinks []string `json:"processed_links"`
}

type parserStateFile struct {
	InitialLoadCompleted bool `json:"initial_load_completed"`
}

// fileStore keeps one pair of JSON documents per source inside dir.
type fileStore struct {
	dir string
	mu  sync.Mutex
}

func openFileStore(dir string) (*fileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &fileStore{dir: dir}, nil
}

func (f *fileStore) linksPath(source string) string {
	return filepath.Join(f.dir, "processed_links_"+source+".json")
}

func (f *fileStore) parserStatePath(source string) string {
	return filepath.Join(f.dir, "parser_state_"+source+".json")
}

func (f *fileStore) ProcessedLinks(source string) (domain.LinkSet, error) {
	if err := checkSource(source); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var doc processedLinksFile
	found, err := readJSON(f.linksPath(source), &doc)
	if err != nil || !found {
		return domain.NewLinkSet(), err
	}
	return domain.NewLinkSet(doc.ProcessedLinks...), nil
}

func (f *fileStore) SaveProcessedLinks(source string, links domain.LinkSet) error {
	if err := checkSource(source); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := processedLinksFile{ProcessedLinks: links.Sorted()}
	return writeJSONAtomic(f.linksPath(source), doc)
}

func (f *fileStore) InitialLoadCompleted(source string) (bool, error) {
	if err := checkSource(source); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var doc parserStateFile
	if _, err := readJSON(f.parserStatePath(source), &doc); err != nil {
		return false, err
	}
	return doc.InitialLoadCompleted, nil
}

func (f *fileStore) SetInitialLoadCompleted(source string, done bool) error {
	if err := checkSource(source); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	return writeJSONAtomic(f.parserStatePath(source), parserStateFile{InitialLoadCompleted: done})
}

func (f *fileStore) Close() error { return nil }

// readJSON decodes path into v; a missing file reports found=false.
func readJSON(path string, v any) (bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeJSONAtomic writes v next to path and renames it into place.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
