package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

const (
	// SearchLimit caps substring search results.
	SearchLimit = 20
	// DefaultListLimit applies when callers pass a non-positive limit.
	DefaultListLimit = 50

	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"

	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var articleColumns = []string{
	"id", "title", "url", "published_date", "content", "summary", "tags",
	"relevance_score", "category", "image_url", "usefulness", "impact_proximity",
	"source", "created_at",
}

// Repository persists classified articles in SQLite or Postgres.
type Repository struct {
	db      *sql.DB
	dialect string
	builder sq.StatementBuilderType
	now     func() time.Time
	logger  *slog.Logger

	// legacyZone interprets zone-less created_at values left by earlier versions.
	legacyZone *time.Location
}

var _ ports.ArticleRepository = (*Repository)(nil)

// Open connects to the database, creates the schema and adds any missing optional columns.
func Open(ctx context.Context, driver, dsn string, log *slog.Logger) (*Repository, error) {
	switch driver {
	case dialectSQLite:
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	case dialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == dialectSQLite {
		// One writer keeps concurrent ingestion runs from tripping SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	repo := NewRepository(db, driver, log)
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return repo, nil
}

// NewRepository wires an already opened sql.DB; callers are responsible for the schema.
func NewRepository(db *sql.DB, dialect string, log *slog.Logger) *Repository {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if dialect == dialectPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}

	return &Repository{
		db:         db,
		dialect:    dialect,
		builder:    builder,
		now:        time.Now,
		logger:     log,
		legacyZone: time.Local,
	}
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Add inserts a new article. The unique index on url decides duplicates, so racing callers
// inserting the same URL end with exactly one row and inserted=false for the loser.
func (r *Repository) Add(ctx context.Context, article domain.Article) (bool, error) {
	if strings.TrimSpace(article.URL) == "" {
		return false, fmt.Errorf("article url is required")
	}

	tags := article.Tags
	if tags == nil {
		tags = []string{}
	}
	encodedTags, err := json.Marshal(tags)
	if err != nil {
		return false, fmt.Errorf("encode tags: %w", err)
	}

	query, args, err := r.builder.
		Insert(articlesTable).
		Columns(articleColumns[1:]...).
		Values(
			article.Title,
			article.URL,
			formatTimestamp(article.PublishedDate),
			article.Content,
			article.Summary,
			string(encodedTags),
			string(article.Relevance),
			article.Category,
			nullable(article.ImageURL),
			string(article.Usefulness),
			string(article.ImpactProximity),
			article.Source,
			formatTimestamp(r.now()),
		).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, r.insertError(ctx, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		r.debug("article already stored", "url", article.URL)
		return false, nil
	}
	return true, nil
}

// insertError wraps domain.ErrStoreUnavailable when the failure is not specific to the row.
func (r *Repository) insertError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: insert article: %w", domain.ErrStoreUnavailable, err)
	}
	if pingErr := r.db.PingContext(ctx); pingErr != nil {
		return fmt.Errorf("%w: insert article: %w", domain.ErrStoreUnavailable, errors.Join(err, pingErr))
	}
	return fmt.Errorf("insert article: %w", err)
}

// Exists reports whether a record for url is present.
func (r *Repository) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := r.builder.
		Select("1").
		From(articlesTable).
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// List returns the newest articles matching every set filter field.
func (r *Repository) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	builder := r.selectArticles()
	if filter.Relevance != "" {
		builder = builder.Where(sq.Eq{"relevance_score": string(filter.Relevance)})
	}
	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}

	return r.queryArticles(ctx, builder.Limit(uint64(limit)))
}

// Search matches text as a case-insensitive substring of title, summary or content.
func (r *Repository) Search(ctx context.Context, text string) ([]domain.Article, error) {
	term := "%" + text + "%"

	var cond sq.Sqlizer = sq.Or{
		sq.Like{"title": term},
		sq.Like{"summary": term},
		sq.Like{"content": term},
	}
	if r.dialect == dialectPostgres {
		cond = sq.Or{
			sq.ILike{"title": term},
			sq.ILike{"summary": term},
			sq.ILike{"content": term},
		}
	}

	return r.queryArticles(ctx, r.selectArticles().Where(cond).Limit(SearchLimit))
}

func (r *Repository) selectArticles() sq.SelectBuilder {
	return r.builder.
		Select(articleColumns...).
		From(articlesTable).
		OrderBy("created_at DESC", "id DESC")
}

func (r *Repository) queryArticles(ctx context.Context, builder sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	result := make([]domain.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		result = append(result, article)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func scanArticle(rows *sql.Rows) (domain.Article, error) {
	var (
		article                               domain.Article
		title, published, content, summary    sql.NullString
		tags, relevance, category, imageURL   sql.NullString
		usefulness, impact, source, createdAt sql.NullString
	)

	err := rows.Scan(
		&article.ID, &title, &article.URL, &published, &content, &summary, &tags,
		&relevance, &category, &imageURL, &usefulness, &impact, &source, &createdAt,
	)
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}

	article.Title = title.String
	article.PublishedDate = parseTimestamp(published.String)
	article.Content = content.String
	article.Summary = summary.String
	article.Relevance = domain.Relevance(relevance.String)
	article.Category = category.String
	article.ImageURL = imageURL.String
	article.Usefulness = domain.Usefulness(usefulness.String)
	article.ImpactProximity = domain.ImpactProximity(impact.String)
	article.Source = source.String
	article.CreatedAt = parseTimestamp(createdAt.String)

	article.Tags = []string{}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &article.Tags); err != nil {
			return domain.Article{}, fmt.Errorf("decode tags for %s: %w", article.URL, err)
		}
	}

	return article, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp also accepts the layouts written by earlier versions and raw feed dates.
func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}

	layouts := []string{
		timestampLayout,
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		time.RFC1123Z,
		time.RFC1123,
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || path == ":memory:" {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database dir %s: %w", dir, err)
	}
	return nil
}

func (r *Repository) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
