package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rniirs/news-harvester/internal/domain"
	"github.com/rniirs/news-harvester/internal/logger"
	"github.com/rniirs/news-harvester/pkg/classifier"
)

var errNaukaContentMissing = errors.New("news detail content block not found")

type naukaListing struct {
	Items []naukaListingItem `json:"ITEMS"`
}

type naukaListingItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date"`
}

// naukaRFParser reads the AJAX JSON feed of наука.рф and classifies every title.
type naukaRFParser struct {
	cfg      Source
	client   HTTPClient
	headers  map[string]string
	resolver *classifier.Resolver
	log      logger.Logger
}

// NewNaukaRFParser builds a parser for the наука.рф JSON listing.
func NewNaukaRFParser(cfg Source, deps Deps) (Parser, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("nauka_rf source %q base_url is empty", cfg.ID)
	}
	if deps.Client == nil {
		deps.Client = DefaultHTTPClient()
	}
	log := logger.Ensure(deps.Log)
	return &naukaRFParser{
		cfg:      cfg,
		client:   deps.Client,
		headers:  Headers(cfg),
		resolver: classifier.NewResolver(deps.Classifier, firstNonEmpty(cfg.DefaultCategory, deps.DefaultCategory), cfg.Name, log),
		log:      log,
	}, nil
}

func (p *naukaRFParser) SourceName() string { return p.cfg.Name }

func (p *naukaRFParser) FetchListing(ctx context.Context, page int) ([]domain.ListingItem, error) {
	body, err := fetchPage(ctx, p.client, p.cfg.PageURL(page), p.cfg.ID, p.headers)
	if err != nil {
		return nil, err
	}
	return parseNaukaListing(body)
}

func parseNaukaListing(body []byte) ([]domain.ListingItem, error) {
	var listing naukaListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode nauka_rf listing: %w", err)
	}

	items := make([]domain.ListingItem, 0, len(listing.Items))
	for _, it := range listing.Items {
		link := strings.TrimSpace(it.URL)
		if link == "" {
			continue
		}
		date, _ := ParseDate(it.Date, RussianMonths, YearMonthDay)
		items = append(items, domain.ListingItem{
			Title:    squash(it.Title),
			Link:     link,
			DateHint: date,
		})
	}
	return items, nil
}

func (p *naukaRFParser) FetchDetail(ctx context.Context, link string) (*domain.DetailRecord, error) {
	body, err := fetchPage(ctx, p.client, resolveURL(link, p.cfg.BaseURL), p.cfg.ID, p.headers)
	if err != nil {
		return nil, err
	}
	detail, err := parseNaukaDetail(body, p.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	detail.Byline = p.cfg.Name
	return detail, nil
}

func parseNaukaDetail(body []byte, base string) (*domain.DetailRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse nauka_rf detail: %w", err)
	}

	content := doc.Find("div.u-news-detail-page__text-content").First()
	if content.Length() == 0 {
		return nil, errNaukaContentMissing
	}

	detail := &domain.DetailRecord{
		Title: squash(doc.Find("h1.u-inner-header__title").First().Text()),
	}
	if date, ok := ParseDate(doc.Find("time.u-news-detail__date").First().Text(), RussianMonths, YearMonthDay); ok {
		detail.Date = &date
	}

	var md markdownBody
	intro := squash(content.Find("b").First().Text())
	md.bold(intro)

	content.Find("p, img-wyz").Each(func(_ int, el *goquery.Selection) {
		if goquery.NodeName(el) == "img-wyz" {
			src, _ := el.Attr("src")
			if src = strings.TrimSpace(src); src != "" {
				md.image(resolveURL(src, base))
			}
			return
		}
		text := inlineMarkdown(el, base)
		if text == "" || (intro != "" && squash(el.Text()) == intro) {
			return
		}
		md.paragraph(text)
	})
	detail.Body = md.String()

	return detail, nil
}

// Category always asks the classifier; the feed has no usable rubric.
func (p *naukaRFParser) Category(ctx context.Context, item domain.ListingItem) string {
	return p.resolver.Resolve(ctx, item.Title)
}
