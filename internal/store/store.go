// Package store defines the reference-store boundary consumed by the
// resolver, the location inferencer, and the bulk importer, plus the
// Postgres adapter that implements it.
package store

import "context"

// Reference table names, schema-qualified.
const (
	TableBenchmarkFees = "ref.benchmark_fees"
	TableGPCI          = "ref.gpci"
	TableZipLocality   = "ref.zip_locality"
	TableCPTMaster     = "ref.cpt_master"
)

// AllTables lists every reference table in canonical order.
var AllTables = []string{TableBenchmarkFees, TableGPCI, TableZipLocality, TableCPTMaster}

// Filters narrows a description search.
type Filters struct {
	// Year scopes the search to one benchmark year. Zero means no year filter.
	Year int
	// ExcludeQualityProgram drops quality-program measure codes, which share
	// the fee table but are not billable procedures.
	ExcludeQualityProgram bool
}

// CodeRow is one hit from a description search.
type CodeRow struct {
	Code        string
	Description string
}

// Store is the queryable reference dataset. Implementations own all
// transactional guarantees; callers never hold locks across these calls.
type Store interface {
	// CountExact returns the exact row count of a reference table.
	CountExact(ctx context.Context, table string) (int64, error)

	// FindByDescriptionSubstring performs a case-insensitive substring
	// containment search over a table's description column.
	FindByDescriptionSubstring(ctx context.Context, table, token string, f Filters, limit int) ([]CodeRow, error)

	// FindByExactKey fetches a single row by exact key match. The second
	// return is false when no row matched.
	FindByExactKey(ctx context.Context, table, keyColumn, keyValue string) (map[string]string, bool, error)

	// UpsertBatch writes one batch of rows, idempotent on the conflict
	// columns. Columns and row value order must agree.
	UpsertBatch(ctx context.Context, table string, columns []string, rows [][]any, conflictCols []string) error
}
