package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

const (
	defaultEndpoint = "https://html.duckduckgo.com/html/"
	userAgent       = "Mozilla/5.0 (compatible; NewsAgent/1.0)"

	defaultMaxResults = 5
)

// DuckDuckGo scrapes the keyless HTML endpoint and extracts organic results.
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
}

var _ ports.WebSearcher = (*DuckDuckGo)(nil)

// NewDuckDuckGo wires an HTTP client; endpoint defaults to the public HTML frontend.
func NewDuckDuckGo(client *http.Client, endpoint string) *DuckDuckGo {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &DuckDuckGo{client: client, endpoint: endpoint}
}

// Name identifies the provider in logs.
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// Search returns up to maxResults hits for query.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	doc, err := d.fetchDocument(ctx, query)
	if err != nil {
		return nil, err
	}

	return extractResults(doc, maxResults), nil
}

func (d *DuckDuckGo) fetchDocument(ctx context.Context, query string) (*goquery.Document, error) {
	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractResults(doc *goquery.Document, maxResults int) []domain.WebResult {
	results := make([]domain.WebResult, 0, maxResults)

	doc.Find("div.result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		if sel.HasClass("result--ad") {
			return true
		}

		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		target := resolveHref(href)
		if title == "" || target == "" {
			return true
		}

		results = append(results, domain.WebResult{
			Title:   title,
			URL:     target,
			Summary: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return true
	})

	return results
}

// resolveHref unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}
