package db

import (
	"context"
	"fmt"
	"regexp"

	"github.com/dsjohal14/sitesearch/internal/scope/feed"
	"github.com/jackc/pgx/v5"
)

// DefaultTable is the table read when none is configured
const DefaultTable = "search_entries"

// Schema creates the default entries table. Rows are served ordered by
// position, then id.
const Schema = `
CREATE TABLE IF NOT EXISTS search_entries (
	id       BIGSERIAL PRIMARY KEY,
	position INTEGER NOT NULL DEFAULT 0,
	title    TEXT,
	url      TEXT,
	content  TEXT
)`

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Querier is the subset of pgxpool.Pool used to read entries
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// EntrySource loads search entries from a Postgres table
type EntrySource struct {
	db    Querier
	table string
}

// NewEntrySource creates a source over table, which must be a plain
// (optionally schema-qualified) identifier
func NewEntrySource(db Querier, table string) (*EntrySource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &EntrySource{db: db, table: table}, nil
}

// Fetch reads every entry in table order. NULL columns become empty strings.
func (s *EntrySource) Fetch(ctx context.Context) ([]feed.Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT COALESCE(title, ''), COALESCE(url, ''), COALESCE(content, '')
		FROM `+s.table+`
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]feed.Entry, 0)
	for rows.Next() {
		var e feed.Entry
		if err := rows.Scan(&e.Title, &e.URL, &e.Content); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

// String names the table the source reads
func (s *EntrySource) String() string {
	return "postgres:" + s.table
}
