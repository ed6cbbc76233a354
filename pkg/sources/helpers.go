package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const maxBodyBytes = 2 << 20 // 2 MiB

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// fetchPage downloads url and fails on transport errors and non-200 responses.
func fetchPage(ctx context.Context, client HTTPClient, url, sourceID string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page %s: %w", sourceID, url, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s page %s returned status %d body: %s", sourceID, url, resp.StatusCode(), responseSnippet(body))
	}
	if len(body) > maxBodyBytes {
		body = body[:maxBodyBytes]
	}
	return body, nil
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}
	if baseURL.Path == "" {
		baseURL.Path = "/"
	}

	return baseURL.ResolveReference(parsed).String()
}

var spaceRun = regexp.MustCompile(`[ \t\p{Zs}]+`)

// squash trims s and folds runs of horizontal whitespace into one space.
func squash(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
