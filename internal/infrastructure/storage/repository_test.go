package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/logging"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "data", "news.db")
	repo, err := Open(context.Background(), dialectSQLite, dsn, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	var tick int
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return repo
}

func sampleArticle(url string) domain.Article {
	return domain.Article{
		Title:           "Go 1.25 released",
		URL:             url,
		PublishedDate:   time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC),
		Content:         "The Go team is happy to announce the release.",
		Summary:         "A new Go release is out.",
		Tags:            []string{"go", "release"},
		Relevance:       domain.RelevanceHigh,
		Usefulness:      domain.UsefulnessInformative,
		ImpactProximity: domain.ImpactShortTerm,
		Category:        "Tech",
		ImageURL:        "http://x/a.jpg",
		Source:          "Go Blog",
	}
}

func TestAddIsIdempotentOnURL(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	inserted, err := repo.Add(ctx, sampleArticle("http://a"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Add(ctx, sampleArticle("http://a"))
	require.NoError(t, err)
	assert.False(t, inserted, "second add must report no new record")

	articles, err := repo.List(ctx, domain.ArticleFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	got := articles[0]
	assert.Equal(t, "http://a", got.URL)
	assert.Equal(t, []string{"go", "release"}, got.Tags)
	assert.Equal(t, domain.RelevanceHigh, got.Relevance)
	assert.Equal(t, domain.UsefulnessInformative, got.Usefulness)
	assert.Equal(t, domain.ImpactShortTerm, got.ImpactProximity)
	assert.Equal(t, "http://x/a.jpg", got.ImageURL)
	assert.Equal(t, "Go Blog", got.Source)
	assert.True(t, got.PublishedDate.Equal(time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC)))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestAddConcurrentSameURL(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	repo.now = time.Now
	ctx := context.Background()

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Add(ctx, sampleArticle("http://race"))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	articles, err := repo.List(ctx, domain.ArticleFilter{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}

func TestAddRequiresURL(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	_, err := repo.Add(context.Background(), sampleArticle(""))
	assert.Error(t, err)
}

func TestAddRowRejectionIsNotStoreFailure(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.db.ExecContext(ctx, `CREATE TRIGGER reject_bad BEFORE INSERT ON articles
		WHEN NEW.url = 'http://bad' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	_, err = repo.Add(ctx, sampleArticle("http://bad"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)

	inserted, err := repo.Add(ctx, sampleArticle("http://good"))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestAddOnClosedStoreReportsUnavailable(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	require.NoError(t, repo.db.Close())

	_, err := repo.Add(context.Background(), sampleArticle("http://a"))
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestExists(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	ok, err := repo.Exists(ctx, "http://a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Add(ctx, sampleArticle("http://a"))
	require.NoError(t, err)

	ok, err = repo.Exists(ctx, "http://a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListFiltersCombineWithAnd(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	fixtures := []struct {
		url       string
		relevance domain.Relevance
		category  string
	}{
		{"http://1", domain.RelevanceHigh, "Tech"},
		{"http://2", domain.RelevanceHigh, "Science"},
		{"http://3", domain.RelevanceLow, "Tech"},
		{"http://4", domain.RelevanceMedium, "Tech"},
		{"http://5", domain.RelevanceHigh, "Tech"},
	}
	for _, f := range fixtures {
		a := sampleArticle(f.url)
		a.Relevance = f.relevance
		a.Category = f.category
		_, err := repo.Add(ctx, a)
		require.NoError(t, err)
	}

	high, err := repo.List(ctx, domain.ArticleFilter{Limit: 10, Relevance: domain.RelevanceHigh})
	require.NoError(t, err)
	require.Len(t, high, 3)
	for _, a := range high {
		assert.Equal(t, domain.RelevanceHigh, a.Relevance)
	}

	highTech, err := repo.List(ctx, domain.ArticleFilter{Limit: 10, Relevance: domain.RelevanceHigh, Category: "Tech"})
	require.NoError(t, err)
	require.Len(t, highTech, 2)
	assert.Equal(t, "http://5", highTech[0].URL, "newest first")
	assert.Equal(t, "http://1", highTech[1].URL)

	limited, err := repo.List(ctx, domain.ArticleFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "http://5", limited[0].URL)
	assert.Equal(t, "http://4", limited[1].URL)
}

func TestSearchCaseInsensitiveAcrossFields(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	inTitle := sampleArticle("http://title")
	inTitle.Title = "Kubernetes Operators in Practice"
	inTitle.Summary, inTitle.Content = "", ""

	inSummary := sampleArticle("http://summary")
	inSummary.Title, inSummary.Content = "Unrelated", ""
	inSummary.Summary = "Why KUBERNETES upgrades hurt"

	inContent := sampleArticle("http://content")
	inContent.Title, inContent.Summary = "Unrelated", ""
	inContent.Content = "<p>running kubernetes at home</p>"

	miss := sampleArticle("http://miss")
	miss.Title, miss.Summary, miss.Content = "Rust", "Borrow checker", "Lifetimes"

	for _, a := range []domain.Article{inTitle, inSummary, inContent, miss} {
		_, err := repo.Add(ctx, a)
		require.NoError(t, err)
	}

	found, err := repo.Search(ctx, "KuBeRnEtEs")
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "http://content", found[0].URL)
	assert.Equal(t, "http://summary", found[1].URL)
	assert.Equal(t, "http://title", found[2].URL)
}

func TestSearchCapsResults(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < SearchLimit+5; i++ {
		_, err := repo.Add(ctx, sampleArticle(fmt.Sprintf("http://bulk/%d", i)))
		require.NoError(t, err)
	}

	found, err := repo.Search(ctx, "go")
	require.NoError(t, err)
	require.Len(t, found, SearchLimit)
	assert.Equal(t, fmt.Sprintf("http://bulk/%d", SearchLimit+4), found[0].URL)
}

func TestOpenAddsMissingColumnsToLegacySchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open(dialectSQLite, dsn)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT,
		url TEXT UNIQUE,
		published_date TEXT,
		content TEXT,
		summary TEXT,
		tags TEXT,
		relevance_score TEXT,
		category TEXT,
		created_at TEXT
	)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO articles (title, url, published_date, content, summary, tags, relevance_score, category, created_at)
		VALUES ('Old', 'http://old', 'Mon, 02 Jan 2006 15:04:05 GMT', 'old body', 'old summary', '["legacy"]', 'Medium', 'Tech', '2024-06-15T10:00:00.123456')`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	repo, err := Open(ctx, dialectSQLite, dsn, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	columns, err := repo.columns(ctx)
	require.NoError(t, err)
	for _, c := range optionalColumns {
		assert.True(t, columns[c], "column %s should exist", c)
	}

	articles, err := repo.List(ctx, domain.ArticleFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "http://old", articles[0].URL)
	assert.Equal(t, []string{"legacy"}, articles[0].Tags)
	assert.Empty(t, articles[0].ImageURL)
	assert.Equal(t, 2024, articles[0].CreatedAt.Year())

	inserted, err := repo.Add(ctx, sampleArticle("http://new"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Reopening an up-to-date schema is a no-op.
	require.NoError(t, repo.migrate(ctx))
}

func TestMigrateNormalizesLegacyCreatedAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepository(t)
	repo.legacyZone = time.FixedZone("UTC+3", 3*60*60)

	_, err := repo.db.ExecContext(ctx, `INSERT INTO articles (title, url, created_at) VALUES
		('Legacy', 'http://legacy', '2025-03-01T14:00:30.250000'),
		('Zoned', 'http://zoned', '2025-03-01T12:00:20+00:00'),
		('Odd', 'http://odd', 'yesterday')`)
	require.NoError(t, err)
	// Written as 2025-03-01T12:00:01Z.
	_, err = repo.Add(ctx, sampleArticle("http://current"))
	require.NoError(t, err)
	repo.now = func() time.Time { return time.Date(2025, time.March, 1, 11, 30, 0, 0, time.UTC) }
	_, err = repo.Add(ctx, sampleArticle("http://older"))
	require.NoError(t, err)

	require.NoError(t, repo.migrate(ctx))

	var raw string
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT created_at FROM articles WHERE url = 'http://legacy'`).Scan(&raw))
	assert.Equal(t, "2025-03-01T11:00:30.250000000Z", raw)
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT created_at FROM articles WHERE url = 'http://zoned'`).Scan(&raw))
	assert.Equal(t, "2025-03-01T12:00:20+00:00", raw)
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT created_at FROM articles WHERE url = 'http://odd'`).Scan(&raw))
	assert.Equal(t, "yesterday", raw)

	all, err := repo.List(ctx, domain.ArticleFilter{Limit: 10})
	require.NoError(t, err)
	var order []string
	for _, a := range all {
		if a.URL != "http://odd" && a.URL != "http://zoned" {
			order = append(order, a.URL)
		}
	}
	assert.Equal(t, []string{"http://current", "http://older", "http://legacy"}, order)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "dsn", nil)
	assert.Error(t, err)
}
