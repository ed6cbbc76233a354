package publishers

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/rniirs/news-harvester/internal/domain"
)

func TestFilePublisherAppendsPerSource(t *testing.T) {
	dir := t.TempDir()
	pub, err := newFilePublisher(context.Background(), PublisherConfig{
		ID:   "dump",
		Type: TypeFile,
		File: &FilePublisherConfig{Dir: dir},
	}, nil)
	if err != nil {
		t.Fatalf("newFilePublisher: %v", err)
	}

	ctx := context.Background()
	if err := pub.Publish(ctx, sampleEvent()); err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	more := NewEvent("rscf", "РНФ", domain.ModeIncremental, []domain.NewsRecord{{Title: "Третья", Link: "/news/3/"}})
	if err := pub.Publish(ctx, more); err != nil {
		t.Fatalf("second Publish: %v", err)
	}

	raw, err := os.ReadFile(pub.(*filePublisher).DumpPath("rscf"))
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	var records []domain.NewsRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if len(records) != 3 || records[2].Title != "Третья" {
		t.Fatalf("unexpected dump contents %#v", records)
	}
}

func TestFilePublisherRejectsPathLikeSource(t *testing.T) {
	pub, _ := newFilePublisher(context.Background(), PublisherConfig{ID: "dump", File: &FilePublisherConfig{Dir: t.TempDir()}}, nil)
	if err := pub.Publish(context.Background(), Event{SourceID: "../x"}); err == nil {
		t.Fatalf("expected error for path-like source id")
	}
}

func TestNoopPublisherAcceptsEverything(t *testing.T) {
	pub := NewNoop("", nil)
	if pub.ID() != TypeNoop || pub.Type() != TypeNoop {
		t.Fatalf("unexpected noop identity %s/%s", pub.ID(), pub.Type())
	}
	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
