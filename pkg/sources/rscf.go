package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rniirs/news-harvester/internal/domain"
	"github.com/rniirs/news-harvester/internal/logger"
	"github.com/rniirs/news-harvester/pkg/classifier"
)

// rscfDateSelectors are tried in order; the site moved the date element between layouts.
var rscfDateSelectors = []string{
	"span.news-date-time",
	"div.news-date",
	"div.b-news-detail-date",
}

var moscow = time.FixedZone("MSK", 3*60*60)

// rscfParser parses the HTML news feed of the Russian Science Foundation.
type rscfParser struct {
	cfg      Source
	client   HTTPClient
	headers  map[string]string
	resolver *classifier.Resolver
	log      logger.Logger
}

// NewRSCFParser builds a parser for rscf.ru style listings.
func NewRSCFParser(cfg Source, deps Deps) (Parser, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("rscf source %q base_url is empty", cfg.ID)
	}
	if deps.Client == nil {
		deps.Client = DefaultHTTPClient()
	}
	log := logger.Ensure(deps.Log)
	return &rscfParser{
		cfg:      cfg,
		client:   deps.Client,
		headers:  Headers(cfg),
		resolver: classifier.NewResolver(deps.Classifier, firstNonEmpty(cfg.DefaultCategory, deps.DefaultCategory), cfg.Name, log),
		log:      log,
	}, nil
}

func (p *rscfParser) SourceName() string { return p.cfg.Name }

func (p *rscfParser) FetchListing(ctx context.Context, page int) ([]domain.ListingItem, error) {
	body, err := fetchPage(ctx, p.client, p.cfg.PageURL(page), p.cfg.ID, p.headers)
	if err != nil {
		return nil, err
	}
	return parseRSCFListing(body)
}

func parseRSCFListing(body []byte) ([]domain.ListingItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse rscf listing: %w", err)
	}

	var items []domain.ListingItem
	doc.Find("div.news-item").Each(func(_ int, s *goquery.Selection) {
		title := s.Find("a.news-title").First()
		link, _ := title.Attr("href")
		link = strings.TrimSpace(link)
		if link == "" {
			return
		}
		items = append(items, domain.ListingItem{
			Title:        squash(title.Text()),
			CategoryHint: squash(s.Find("a.news-category").First().Text()),
			Link:         link,
		})
	})
	return items, nil
}

func (p *rscfParser) FetchDetail(ctx context.Context, link string) (*domain.DetailRecord, error) {
	body, err := fetchPage(ctx, p.client, resolveURL(link, p.cfg.BaseURL), p.cfg.ID, p.headers)
	if err != nil {
		return nil, err
	}
	return parseRSCFDetail(body, p.cfg.BaseURL)
}

func parseRSCFDetail(body []byte, base string) (*domain.DetailRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse rscf detail: %w", err)
	}

	detail := &domain.DetailRecord{
		Title:  squash(doc.Find("h1").First().Text()),
		Byline: squash(doc.Find("div.news-detail-source a").First().Text()),
	}

	for _, sel := range rscfDateSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := squash(node.Text())
		if date, ok := ParseDate(text, RussianMonths, DayMonthYear); ok {
			detail.Date = &date
			if ts, ok := ParseTimestamp(date, DayMonthYear, text, moscow); ok {
				detail.PublishedAt = domain.NewTimestamp(ts)
			}
		}
		break
	}

	var md markdownBody
	if intro := doc.Find("div.news-detail-intro").First(); intro.Length() > 0 {
		md.bold(inlineMarkdown(intro, base))
	}
	doc.Find("div.b-news-detail-content").First().Find("p, blockquote").Each(func(_ int, el *goquery.Selection) {
		switch goquery.NodeName(el) {
		case "blockquote":
			md.quote(inlineMarkdown(el, base))
		case "p":
			if el.ParentsFiltered("blockquote").Length() > 0 {
				return
			}
			text := inlineMarkdown(el, base)
			if el.Find("i, em").Length() > 0 {
				md.italic(text)
			} else {
				md.paragraph(text)
			}
		}
	})
	detail.Body = md.String()

	return detail, nil
}

func (p *rscfParser) Category(ctx context.Context, item domain.ListingItem) string {
	if hint := strings.TrimSpace(item.CategoryHint); hint != "" {
		return hint
	}
	return p.resolver.Resolve(ctx, item.Title)
}
