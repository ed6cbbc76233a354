package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}
	return file
}

func TestLoadCatalogYAML(t *testing.T) {
	file := writeCatalog(t, "sources.yaml", `
sources:
  - id: rscf
    name: РНФ
    type: RSCF
    base_url: https://rscf.ru/
    listing_url: https://rscf.ru/news/?PAGEN_2={page}
    request_delay_ms: 750
    backfill_pages: 3
  - id: nauka
    name: наука.рф
    type: nauka_rf
    base_url: https://xn--80aa3ak5a.xn--p1ai
    listing_url: https://xn--80aa3ak5a.xn--p1ai/news/?AJAX=Y&PAGEN_1={page}&period=0
    enabled: false
`)

	catalog, err := LoadCatalog(file)
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	if got := len(catalog.All()); got != 2 {
		t.Fatalf("expected 2 sources, got %d", got)
	}
	if got := len(catalog.Enabled()); got != 1 {
		t.Fatalf("expected 1 enabled source, got %d", got)
	}

	s, ok := catalog.ByID("rscf")
	if !ok {
		t.Fatalf("expected source rscf to be loaded")
	}
	if s.Type != TypeRSCF {
		t.Fatalf("expected lower-cased type, got %q", s.Type)
	}
	if s.BaseURL != "https://rscf.ru" {
		t.Fatalf("expected trailing slash trimmed, got %q", s.BaseURL)
	}
	if s.PageURL(2) != "https://rscf.ru/news/?PAGEN_2=2" {
		t.Fatalf("unexpected page url: %s", s.PageURL(2))
	}
	if s.RequestDelay() != 750*time.Millisecond {
		t.Fatalf("unexpected request delay: %v", s.RequestDelay())
	}
	if s.Pages(10) != 3 {
		t.Fatalf("expected per-source backfill pages, got %d", s.Pages(10))
	}

	n, _ := catalog.ByID("nauka")
	if n.RequestDelay() != 0 {
		t.Fatalf("expected pacing disabled, got %v", n.RequestDelay())
	}
	if n.Pages(10) != 10 {
		t.Fatalf("expected fallback backfill pages, got %d", n.Pages(10))
	}
}

func TestLoadCatalogJSON(t *testing.T) {
	file := writeCatalog(t, "sources.json", `{"sources":[{"id":"rscf","name":"РНФ","type":"rscf","base_url":"https://rscf.ru","listing_url":"https://rscf.ru/news/?PAGEN_2={page}"}]}`)

	catalog, err := LoadCatalog(file)
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	if _, ok := catalog.ByID("rscf"); !ok {
		t.Fatalf("expected rscf source")
	}
}

func TestLoadCatalogDuplicateID(t *testing.T) {
	file := writeCatalog(t, "sources.yaml", `
sources:
  - id: duplicate
    name: One
    type: rscf
    base_url: https://one.example
    listing_url: https://one.example/?p={page}
  - id: duplicate
    name: Two
    type: rscf
    base_url: https://two.example
    listing_url: https://two.example/?p={page}
`)

	if _, err := LoadCatalog(file); err == nil {
		t.Fatalf("expected duplicate source error, got nil")
	}
}

func TestLoadCatalogRequiresPagePlaceholder(t *testing.T) {
	file := writeCatalog(t, "sources.yaml", `
sources:
  - id: rscf
    name: РНФ
    type: rscf
    base_url: https://rscf.ru
    listing_url: https://rscf.ru/news/
`)

	if _, err := LoadCatalog(file); err == nil {
		t.Fatalf("expected listing_url validation error, got nil")
	}
}

func TestLoadCatalogEmpty(t *testing.T) {
	file := writeCatalog(t, "sources.yaml", "sources: []\n")
	if _, err := LoadCatalog(file); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
}

func TestHeadersDefaultsAndOverrides(t *testing.T) {
	h := Headers(Source{})
	if h["User-Agent"] != defaultUserAgent {
		t.Fatalf("expected default user agent, got %q", h["User-Agent"])
	}
	if _, ok := h["Accept"]; ok {
		t.Fatalf("empty accept header should be skipped")
	}

	h = Headers(Source{Config: map[string]any{
		ConfigUserAgentKey:      "bot/1.0",
		ConfigAcceptLanguageKey: "ru-RU",
	}})
	if h["User-Agent"] != "bot/1.0" || h["Accept-Language"] != "ru-RU" {
		t.Fatalf("unexpected headers: %#v", h)
	}
}
