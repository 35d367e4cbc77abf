// mkmaster converts a master code list CSV into a Parquet snapshot usable
// by `refload resolve --master-file` when no reference store is reachable.
// Expected columns: code, short_label, long_description, section, category,
// synonyms (pipe-delimited).
// Usage: go run ./cmd/mkmaster --in cpt_master.csv --out cpt_master.parquet
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strings"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/benchref/internal/codes"
	"github.com/gyeh/benchref/internal/model"
)

func main() {
	in := flag.String("in", "", "input master list CSV")
	out := flag.String("out", "cpt_master.parquet", "output parquet snapshot")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "--in is required")
		os.Exit(1)
	}

	rows, err := readMasterCSV(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read master csv: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}

	w := goparquet.NewGenericWriter[model.MasterRow](f)
	if _, err := w.Write(rows); err != nil {
		fmt.Fprintf(os.Stderr, "write parquet: %v\n", err)
		os.Exit(1)
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close parquet: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d master entries to %s\n", len(rows), *out)
}

// readMasterCSV parses the CSV, skipping the header and any row whose code
// does not normalize to the canonical 5-character format.
func readMasterCSV(path string) ([]model.MasterRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	col := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rows []model.MasterRow
	skipped := 0
	for _, rec := range records[1:] {
		code := codes.Normalize(col(rec, 0))
		if !codes.IsValidFormat(code) {
			skipped++
			continue
		}
		rows = append(rows, model.MasterRow{
			Code:            code,
			ShortLabel:      col(rec, 1),
			LongDescription: col(rec, 2),
			Section:         col(rec, 3),
			Category:        col(rec, 4),
			Synonyms:        col(rec, 5),
		})
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "skipped %d rows with invalid codes\n", skipped)
	}
	return rows, nil
}
