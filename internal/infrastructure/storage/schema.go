package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const articlesTable = "articles"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT,
	url TEXT UNIQUE,
	published_date TEXT,
	content TEXT,
	summary TEXT,
	tags TEXT,
	relevance_score TEXT,
	category TEXT,
	image_url TEXT,
	usefulness TEXT,
	impact_proximity TEXT,
	source TEXT,
	created_at TEXT
)`

const postgresSchema = `CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	title TEXT,
	url TEXT UNIQUE,
	published_date TEXT,
	content TEXT,
	summary TEXT,
	tags TEXT,
	relevance_score TEXT,
	category TEXT,
	image_url TEXT,
	usefulness TEXT,
	impact_proximity TEXT,
	source TEXT,
	created_at TEXT
)`

// optionalColumns were added after the first schema version and may be missing from older files.
var optionalColumns = []string{"image_url", "usefulness", "impact_proximity", "source"}

func (r *Repository) migrate(ctx context.Context) error {
	ddl := sqliteSchema
	if r.dialect == dialectPostgres {
		ddl = postgresSchema
	}

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create articles table: %w", err)
	}

	existing, err := r.columns(ctx)
	if err != nil {
		return err
	}

	for _, column := range optionalColumns {
		if existing[column] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", articlesTable, column)
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", column, err)
		}
		r.debug("schema column added", "column", column)
	}

	return r.normalizeCreatedAt(ctx)
}

// legacyTimestampLayouts are zone-less local times written before timestamps were stored in UTC.
var legacyTimestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// normalizeCreatedAt rewrites zone-less created_at values as UTC so that text ordering matches
// time ordering. Values that already carry a zone, or do not parse, are left alone.
func (r *Repository) normalizeCreatedAt(ctx context.Context) error {
	query, args, err := r.builder.
		Select("id", "created_at").
		From(articlesTable).
		Where(sq.And{
			sq.NotEq{"created_at": nil},
			sq.NotEq{"created_at": ""},
			sq.NotLike{"created_at": "%Z"},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build legacy timestamp select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query legacy timestamps: %w", err)
	}

	updates := make(map[int64]string)
	for rows.Next() {
		var (
			id    int64
			value string
		)
		if err := rows.Scan(&id, &value); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan legacy timestamp: %w", err)
		}
		if parsed, ok := parseLegacyTimestamp(value, r.legacyZone); ok {
			updates[id] = formatTimestamp(parsed)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("rows iteration: %w", err)
	}
	// Closed before writing: sqlite runs with a single connection.
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close rows: %w", err)
	}

	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timestamp migration: %w", err)
	}
	for id, value := range updates {
		stmt, stmtArgs, err := r.builder.
			Update(articlesTable).
			Set("created_at", value).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build timestamp update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, stmt, stmtArgs...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update created_at for %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timestamp migration: %w", err)
	}

	r.debug("legacy timestamps normalized", "rows", len(updates))
	return nil
}

func parseLegacyTimestamp(value string, zone *time.Location) (time.Time, bool) {
	if zone == nil {
		zone = time.Local
	}
	for _, layout := range legacyTimestampLayouts {
		if parsed, err := time.ParseInLocation(layout, value, zone); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func (r *Repository) columns(ctx context.Context) (map[string]bool, error) {
	if r.dialect == dialectPostgres {
		return r.queryColumnNames(ctx,
			`SELECT column_name FROM information_schema.columns WHERE table_name = $1 AND table_schema = current_schema()`,
			articlesTable)
	}
	return r.sqliteColumnNames(ctx)
}

func (r *Repository) queryColumnNames(ctx context.Context, query string, args ...any) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inspect columns: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		result[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func (r *Repository) sqliteColumnNames(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, "PRAGMA table_info("+articlesTable+")")
	if err != nil {
		return nil, fmt.Errorf("inspect columns: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		result[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}
