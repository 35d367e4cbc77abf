package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/benchref/internal/model"
	embedsql "github.com/gyeh/benchref/internal/sql"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Compile-time check that PG satisfies the store boundary.
var _ Store = (*PG)(nil)

// PG implements Store over a pgx connection pool.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG wraps an existing pool. The pool stays owned by the caller.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// knownTable guards dynamically assembled SQL against arbitrary table names.
func knownTable(table string) error {
	for _, t := range AllTables {
		if t == table {
			return nil
		}
	}
	return fmt.Errorf("unknown reference table %q", table)
}

// CountExact returns the exact row count of a reference table.
func (s *PG) CountExact(ctx context.Context, table string) (int64, error) {
	if err := knownTable(table); err != nil {
		return 0, err
	}
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// FindByDescriptionSubstring searches fee descriptions for a token.
// Only the fee table carries a searchable description.
func (s *PG) FindByDescriptionSubstring(ctx context.Context, table, token string, f Filters, limit int) ([]CodeRow, error) {
	if table != TableBenchmarkFees {
		return nil, fmt.Errorf("table %s has no searchable description column", table)
	}
	rows, err := s.pool.Query(ctx, embedsql.FindFeesByDescription, token, f.Year, f.ExcludeQualityProgram, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s descriptions: %w", table, err)
	}
	defer rows.Close()

	var out []CodeRow
	for rows.Next() {
		var r CodeRow
		if err := rows.Scan(&r.Code, &r.Description); err != nil {
			return nil, fmt.Errorf("scan description hit: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate description hits: %w", err)
	}
	return out, nil
}

// FindByExactKey fetches one row by exact key match and renders every
// column as text. Returns ok=false when no row matched.
func (s *PG) FindByExactKey(ctx context.Context, table, keyColumn, keyValue string) (map[string]string, bool, error) {
	if err := knownTable(table); err != nil {
		return nil, false, err
	}
	if !identPattern.MatchString(keyColumn) {
		return nil, false, fmt.Errorf("invalid key column %q", keyColumn)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1", table, keyColumn)
	rows, err := s.pool.Query(ctx, query, keyValue)
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s by %s: %w", table, keyColumn, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}

	values, err := rows.Values()
	if err != nil {
		return nil, false, fmt.Errorf("read %s row values: %w", table, err)
	}
	out := make(map[string]string, len(values))
	for i, fd := range rows.FieldDescriptions() {
		if values[i] == nil {
			continue
		}
		out[fd.Name] = fmt.Sprint(values[i])
	}
	return out, true, nil
}

// UpsertBatch writes one batch as a single multi-row INSERT ... ON CONFLICT
// DO UPDATE, idempotent on the conflict columns.
func (s *PG) UpsertBatch(ctx context.Context, table string, columns []string, rows [][]any, conflictCols []string) error {
	if err := knownTable(table); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", len(args)+1)
			args = append(args, row[j])
		}
		b.WriteByte(')')
	}

	fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET ", strings.Join(conflictCols, ", "))
	first := true
	for _, col := range columns {
		if contains(conflictCols, col) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = EXCLUDED.%s", col, col)
		first = false
	}

	if _, err := s.pool.Exec(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("upsert %d rows into %s: %w", len(rows), table, err)
	}
	return nil
}

// LoadAll reads the full master code list, satisfying lexindex.MasterLoader.
func (s *PG) LoadAll(ctx context.Context) ([]model.MasterEntry, error) {
	rows, err := s.pool.Query(ctx, embedsql.LoadMaster)
	if err != nil {
		return nil, fmt.Errorf("load master code list: %w", err)
	}
	defer rows.Close()

	var entries []model.MasterEntry
	for rows.Next() {
		var e model.MasterEntry
		if err := rows.Scan(&e.Code, &e.ShortLabel, &e.LongDescription, &e.Section, &e.Category, &e.Synonyms); err != nil {
			return nil, fmt.Errorf("scan master entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate master entries: %w", err)
	}
	return entries, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
