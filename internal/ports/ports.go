package ports

import (
	"context"
	"time"

	"NewsAgent/internal/domain"
)

// ArticleSource pulls fresh, not yet stored entries from configured feeds.
type ArticleSource interface {
	FetchAll(ctx context.Context) domain.FetchBatch
}

// ArticleRepository persists classified articles and serves retrieval.
type ArticleRepository interface {
	// Add inserts the article; inserted is false when the URL is already stored.
	Add(ctx context.Context, article domain.Article) (inserted bool, err error)
	Exists(ctx context.Context, url string) (bool, error)
	List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
	Search(ctx context.Context, text string) ([]domain.Article, error)
}

// ArticleIndex is the read side of the repository the fetcher pre-filters against.
type ArticleIndex interface {
	Exists(ctx context.Context, url string) (bool, error)
}

// Analyzer classifies a fetched draft; it absorbs engine failures and always returns a judgment.
type Analyzer interface {
	Analyze(ctx context.Context, article domain.RawArticle) domain.Judgment
}

// CompletionClient sends a prompt to the classification engine and returns the raw JSON text.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// WebSearcher queries an external search provider.
type WebSearcher interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error)
}

// Notifier streams digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when ingestion runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
