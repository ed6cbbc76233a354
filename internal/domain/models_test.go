package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewsRecordJSONTimestampFormat(t *testing.T) {
	date := "05-04-2025"
	rec := NewsRecord{
		Title:       "t",
		Link:        "/news/1",
		Date:        &date,
		PublishedAt: NewTimestamp(time.Date(2025, time.April, 5, 12, 30, 0, 0, time.UTC)),
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"published_at":"2025-04-05 12:30:00"`) {
		t.Fatalf("unexpected timestamp encoding: %s", raw)
	}
	if !strings.Contains(string(raw), `"date":"05-04-2025"`) {
		t.Fatalf("unexpected date encoding: %s", raw)
	}
}

func TestNewsRecordJSONNullDate(t *testing.T) {
	raw, err := json.Marshal(NewsRecord{Title: "t"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"date":null`) || !strings.Contains(string(raw), `"published_at":null`) {
		t.Fatalf("expected null date fields: %s", raw)
	}

	var back NewsRecord
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Date != nil || back.PublishedAt != nil {
		t.Fatalf("expected nil date fields, got %#v", back)
	}
}

func TestNewNewsRecordFallbacks(t *testing.T) {
	rec := NewNewsRecord(
		ListingItem{Title: "Title", Link: "/a", DateHint: "2025-04-05"},
		DetailRecord{Body: "body"},
		"Биология",
		"наука.рф",
	)
	if rec.Author != "наука.рф" {
		t.Fatalf("expected author fallback to source, got %q", rec.Author)
	}
	if rec.Date == nil || *rec.Date != "2025-04-05" {
		t.Fatalf("expected date from listing hint, got %v", rec.Date)
	}
	if rec.Category != "Биология" || rec.Description != "body" {
		t.Fatalf("unexpected record %#v", rec)
	}
}

func TestLinkSetIntersectAndUnion(t *testing.T) {
	a := NewLinkSet("x", "y", "z", "")
	b := NewLinkSet("y", "z", "w")

	if a.Len() != 3 {
		t.Fatalf("empty link must be skipped, got %d", a.Len())
	}
	got := a.Intersect(b).Sorted()
	if strings.Join(got, ",") != "y,z" {
		t.Fatalf("Intersect = %v", got)
	}
	got = a.Union(b).Sorted()
	if strings.Join(got, ",") != "w,x,y,z" {
		t.Fatalf("Union = %v", got)
	}
	if a.Len() != 3 || b.Len() != 3 {
		t.Fatalf("set operations must not mutate inputs")
	}
}
