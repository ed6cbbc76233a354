package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rniirs/news-harvester/internal/domain"
	"github.com/rniirs/news-harvester/internal/logger"
	"github.com/rniirs/news-harvester/pkg/httpclient"
)

// httpPublisher posts each batch as a JSON array of records to the news API.
type httpPublisher struct {
	id           string
	method       string
	url          string
	headers      map[string]string
	expectStatus int
	client       *resty.Client
	log          logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	expect := cfg.HTTP.ExpectStatus
	if expect == 0 {
		expect = httpDefaultExpectStatus
	}
	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}
	timeout := cfg.HTTP.TimeoutSeconds
	if timeout <= 0 {
		timeout = httpDefaultTimeoutSeconds
	}

	return &httpPublisher{
		id:           cfg.ID,
		method:       method,
		url:          cfg.HTTP.URL,
		headers:      cfg.HTTP.Headers,
		expectStatus: expect,
		client:       httpclient.NewRestyJSONClient(time.Duration(timeout) * time.Second),
		log:          logger.Ensure(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the records of evt; anything but the expected status fails the batch.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	records := evt.Records
	if records == nil {
		records = []domain.NewsRecord{}
	}

	req := h.client.R().
		SetContext(ctx).
		SetBody(records)

	if len(h.headers) > 0 {
		req.SetHeaders(h.headers)
	}

	req.SetHeader("Content-Type", "application/json")

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode() != h.expectStatus {
		return fmt.Errorf("http response status %d (want %d): %s", resp.StatusCode(), h.expectStatus, readBodySnippet(resp.Body()))
	}

	h.log.DebugObj("http publisher delivered batch", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"source_id":    evt.SourceID,
		"records":      len(records),
	})
	return nil
}

// Close drops idle connections of the underlying client.
func (h *httpPublisher) Close() error {
	h.client.GetClient().CloseIdleConnections()
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
