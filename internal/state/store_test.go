package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rniirs/news-harvester/internal/domain"
)

func openAll(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	stores := map[string]Store{}
	for typ, path := range map[string]string{
		TypeFile:   filepath.Join(dir, "files"),
		TypeBBolt:  filepath.Join(dir, "bolt", "state.db"),
		TypeMemory: "",
	} {
		s, err := NewStore(typ, path)
		if err != nil {
			t.Fatalf("NewStore(%s): %v", typ, err)
		}
		t.Cleanup(func() { s.Close() })
		stores[typ] = s
	}
	return stores
}

func TestStoresRoundTripState(t *testing.T) {
	for typ, store := range openAll(t) {
		t.Run(typ, func(t *testing.T) {
			links, err := store.ProcessedLinks("rscf")
			if err != nil {
				t.Fatalf("ProcessedLinks on empty store: %v", err)
			}
			if links.Len() != 0 {
				t.Fatalf("expected empty set, got %v", links.Sorted())
			}
			done, err := store.InitialLoadCompleted("rscf")
			if err != nil || done {
				t.Fatalf("expected initial load pending, got %v err=%v", done, err)
			}

			if err := store.SaveProcessedLinks("rscf", domain.NewLinkSet("/b", "/a")); err != nil {
				t.Fatalf("SaveProcessedLinks: %v", err)
			}
			if err := store.SetInitialLoadCompleted("rscf", true); err != nil {
				t.Fatalf("SetInitialLoadCompleted: %v", err)
			}

			links, err = store.ProcessedLinks("rscf")
			if err != nil {
				t.Fatalf("ProcessedLinks: %v", err)
			}
			if got := strings.Join(links.Sorted(), ","); got != "/a,/b" {
				t.Fatalf("unexpected links %s", got)
			}
			if done, _ := store.InitialLoadCompleted("rscf"); !done {
				t.Fatalf("expected initial load completed")
			}

			other, _ := store.ProcessedLinks("nauka")
			if other.Len() != 0 {
				t.Fatalf("state leaked across sources: %v", other.Sorted())
			}

			// replacement, not merge
			if err := store.SaveProcessedLinks("rscf", domain.NewLinkSet("/c")); err != nil {
				t.Fatalf("SaveProcessedLinks: %v", err)
			}
			links, _ = store.ProcessedLinks("rscf")
			if got := strings.Join(links.Sorted(), ","); got != "/c" {
				t.Fatalf("expected replaced set, got %s", got)
			}
		})
	}
}

func TestStoresRejectBadSourceIDs(t *testing.T) {
	for typ, store := range openAll(t) {
		t.Run(typ, func(t *testing.T) {
			if _, err := store.ProcessedLinks(" "); err == nil {
				t.Fatalf("expected error for empty source id")
			}
			if err := store.SetInitialLoadCompleted("../etc", true); err == nil {
				t.Fatalf("expected error for path-like source id")
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(TypeFile, dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.SaveProcessedLinks("rscf", domain.NewLinkSet("/z", "/a")); err != nil {
		t.Fatalf("SaveProcessedLinks: %v", err)
	}
	if err := store.SetInitialLoadCompleted("rscf", true); err != nil {
		t.Fatalf("SetInitialLoadCompleted: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "processed_links_rscf.json"))
	if err != nil {
		t.Fatalf("read links file: %v", err)
	}
	want := "{\n  \"processed_links\": [\n    \"/a\",\n    \"/z\"\n  ]\n}"
	if string(raw) != want {
		t.Fatalf("unexpected links file:\n%s", raw)
	}

	raw, err = os.ReadFile(filepath.Join(dir, "parser_state_rscf.json"))
	if err != nil {
		t.Fatalf("read parser state file: %v", err)
	}
	if !strings.Contains(string(raw), `"initial_load_completed": true`) {
		t.Fatalf("unexpected parser state file: %s", raw)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreCorruptJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "processed_links_rscf.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	store, err := NewStore(TypeFile, dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.ProcessedLinks("rscf"); err == nil {
		t.Fatalf("expected decode error for corrupt state")
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewStore(TypeBBolt, path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.SaveProcessedLinks("nauka", domain.NewLinkSet("/news/1/")); err != nil {
		t.Fatalf("SaveProcessedLinks: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err = NewStore(TypeBBolt, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	links, err := store.ProcessedLinks("nauka")
	if err != nil {
		t.Fatalf("ProcessedLinks: %v", err)
	}
	if !links.Has("/news/1/") {
		t.Fatalf("expected link to survive reopen, got %v", links.Sorted())
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore("redis", "x"); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if _, err := NewStore(TypeBBolt, ""); err == nil {
		t.Fatalf("expected bbolt path error")
	}
	if _, err := NewStore(TypeFile, " "); err == nil {
		t.Fatalf("expected file dir error")
	}
}
