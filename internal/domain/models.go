package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Domain contains core models shared by parsers, crawler, state and publishers.

// Mode selects how many listing pages a run covers.
type Mode string

const (
	ModeBackfill    Mode = "backfill"
	ModeIncremental Mode = "incremental"
)

// ListingItem is one entry of a source's listing page.
type ListingItem struct {
	Title        string
	CategoryHint string
	Link         string
	DateHint     string
}

// DetailRecord holds what a detail page yields for a single link.
type DetailRecord struct {
	Title       string
	Date        *string
	PublishedAt *Timestamp
	Byline      string
	Body        string
}

// NewsRecord is the unit handed downstream.
type NewsRecord struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Link        string     `json:"link"`
	Date        *string    `json:"date"`
	PublishedAt *Timestamp `json:"published_at"`
	Author      string     `json:"author"`
	Source      string     `json:"source"`
	Description string     `json:"description"`
}

// NewNewsRecord merges a listing item with its detail page.
func NewNewsRecord(item ListingItem, detail DetailRecord, category, source string) NewsRecord {
	rec := NewsRecord{
		Title:       item.Title,
		Category:    category,
		Link:        item.Link,
		Date:        detail.Date,
		PublishedAt: detail.PublishedAt,
		Author:      detail.Byline,
		Source:      source,
		Description: detail.Body,
	}
	if rec.Title == "" {
		rec.Title = detail.Title
	}
	if rec.Date == nil && item.DateHint != "" {
		hint := item.DateHint
		rec.Date = &hint
	}
	if rec.Author == "" {
		rec.Author = source
	}
	return rec
}

// TimestampLayout is the wire format for timestamps in dumps and API payloads.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp serializes as "YYYY-MM-DD HH:MM:SS".
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	parsed, err := time.ParseInLocation(TimestampLayout, raw, time.UTC)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}
