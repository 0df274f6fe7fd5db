// Package sqlite implements the database port over SQLite files using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/avishiprsd/llm-automation-agent/internal/domain"
	"github.com/avishiprsd/llm-automation-agent/internal/port/database"
)

// Querier opens each database file read-only for the duration of one query.
// Task databases are created and replaced by other tools, so no handle is
// kept between calls.
type Querier struct{}

var _ database.Querier = (*Querier)(nil)

// NewQuerier creates a Querier.
func NewQuerier() *Querier {
	return &Querier{}
}

// QueryRows runs query and returns all rows. []byte values are returned as
// strings so results encode as JSON text.
func (q *Querier) QueryRows(ctx context.Context, path, query string, args ...any) ([][]any, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns: %w", err)
	}

	result := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}
	return result, nil
}

// QueryFloat returns the first column of the first row as a float. NULL
// and an empty result both yield 0.
func (q *Querier) QueryFloat(ctx context.Context, path, query string, args ...any) (float64, error) {
	db, err := open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	var v sql.NullFloat64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("sqlite: query: %w", err)
	}
	if !v.Valid {
		return 0, nil
	}
	return v.Float64, nil
}

// open checks that path exists so a typo is not turned into a new empty
// database, then opens it read-only.
func open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("sqlite: %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlite: stat: %w", err)
	}
	dsn := (&url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
