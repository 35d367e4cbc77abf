// Package parquetread streams master code list snapshots stored as
// Parquet files, for offline use when no reference store is reachable.
package parquetread

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/benchref/internal/model"
)

// Reader wraps a parquet GenericReader for streaming MasterRow records.
type Reader struct {
	file   *os.File
	reader *parquet.GenericReader[model.MasterRow]
}

// Open opens a snapshot file and returns a streaming Reader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat snapshot file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	r := parquet.NewGenericReader[model.MasterRow](pf)
	return &Reader{file: f, reader: r}, nil
}

// NumRows returns the total number of rows in the snapshot.
func (r *Reader) NumRows() int64 {
	return r.reader.NumRows()
}

// Read reads up to len(rows) records into the provided slice.
// Returns the number of rows read and io.EOF when done.
func (r *Reader) Read(rows []model.MasterRow) (int, error) {
	n, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read snapshot rows: %w", err)
	}
	return n, err
}

// Close releases all resources.
func (r *Reader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// MasterFileLoader loads master entries from a Parquet snapshot,
// satisfying lexindex.MasterLoader for store-less operation.
type MasterFileLoader struct {
	Path string
}

const readBatch = 512

// LoadAll streams the whole snapshot into memory as MasterEntries.
func (l MasterFileLoader) LoadAll(ctx context.Context) ([]model.MasterEntry, error) {
	r, err := Open(l.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entries := make([]model.MasterEntry, 0, r.NumRows())
	buf := make([]model.MasterRow, readBatch)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, readErr := r.Read(buf)
		for i := 0; i < n; i++ {
			entries = append(entries, buf[i].ToEntry())
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}
	return entries, nil
}
