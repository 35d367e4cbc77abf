package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
)

// loadCSVGrid reads a CSV file into the 2-D cell grid the importer
// consumes. Ragged rows are allowed; the column mapper tolerates short
// rows. Cells stay strings throughout so code and ZIP values keep their
// leading zeros.
func loadCSVGrid(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReaderSize(f, 1<<20))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return grid, nil
}
