package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	"NewsAgent/internal/metrics"
	"NewsAgent/internal/ports"
)

const userAgent = "NewsAgent/1.0"

// Fetcher pulls entries from configured feeds and drops URLs the store already knows.
type Fetcher struct {
	parser *gofeed.Parser
	feeds  []config.FeedConfig
	index  ports.ArticleIndex
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.ArticleSource = (*Fetcher)(nil)

// NewFetcher wires the feed list with an HTTP client; index may be nil to disable the pre-filter.
func NewFetcher(client *http.Client, feeds []config.FeedConfig, index ports.ArticleIndex, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent

	list := make([]config.FeedConfig, len(feeds))
	copy(list, feeds)

	return &Fetcher{
		parser: parser,
		feeds:  list,
		index:  index,
		now:    time.Now,
		logger: log,
	}
}

// FetchAll processes sources one at a time. A failing source is recorded and skipped.
func (f *Fetcher) FetchAll(ctx context.Context) domain.FetchBatch {
	f.debug("fetch all", "sources", len(f.feeds))

	var result domain.FetchBatch
	seen := map[string]struct{}{}

	for _, source := range f.feeds {
		if err := ctx.Err(); err != nil {
			result.Failures = append(result.Failures, domain.SourceFailure{Source: source.Name, Err: err})
			continue
		}

		drafts, err := f.fetchSource(ctx, source, seen)
		if err != nil {
			f.warn("feed source failed", "source", source.Name, "url", source.URL, "error", err)
			metrics.FeedSourceFailures.Inc()
			result.Failures = append(result.Failures, domain.SourceFailure{Source: source.Name, Err: err})
			continue
		}

		f.debug("source produced articles", "source", source.Name, "count", len(drafts))
		result.Articles = append(result.Articles, drafts...)
	}

	f.debug("fetch done", "total_articles", len(result.Articles), "failed_sources", len(result.Failures))
	return result
}

func (f *Fetcher) fetchSource(ctx context.Context, source config.FeedConfig, seen map[string]struct{}) ([]domain.RawArticle, error) {
	parsed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var drafts []domain.RawArticle
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		link := entryURL(item)
		if link == "" {
			f.debug("entry without url skipped", "source", source.Name, "title", item.Title)
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}

		if f.known(ctx, link) {
			continue
		}
		seen[link] = struct{}{}

		drafts = append(drafts, buildDraft(item, link, source, f.now()))
	}

	return drafts, nil
}

// known is a pre-filter only; the store's unique index stays authoritative.
func (f *Fetcher) known(ctx context.Context, link string) bool {
	if f.index == nil {
		return false
	}

	exists, err := f.index.Exists(ctx, link)
	if err != nil {
		f.warn("existence check failed", "url", link, "error", err)
		return false
	}
	return exists
}

func (f *Fetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *Fetcher) warn(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
