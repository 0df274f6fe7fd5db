// Package database defines the port interface for querying sandboxed
// database files.
package database

import "context"

// Querier runs read-only queries against a database file.
type Querier interface {
	// QueryRows returns every row of query as a slice of column values.
	QueryRows(ctx context.Context, path, query string, args ...any) ([][]any, error)
	// QueryFloat returns the first column of the first row. A NULL value
	// yields 0.
	QueryFloat(ctx context.Context, path, query string, args ...any) (float64, error)
}
