package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/benchref/internal/model"
	"github.com/gyeh/benchref/internal/store"
)

// Batch sizes per dataset. ZIP rows are narrow, so they batch larger.
const (
	FeeBatchSize  = 500
	GPCIBatchSize = 500
	ZipBatchSize  = 1000
)

// Natural keys for idempotent upserts.
var (
	feeConflictCols  = []string{"code", "modifier"}
	gpciConflictCols = []string{"locality"}
	zipConflictCols  = []string{"zip5"}
)

// ProgressFunc is invoked once per committed batch with running totals.
type ProgressFunc func(imported, total int)

// WriteResult reports how far a batched write got. On failure Imported
// counts only fully committed batches.
type WriteResult struct {
	Success  bool
	Imported int
	Batches  int
	Err      error
}

// Writer pushes parsed records into the reference store sequentially;
// batch N+1 never starts before batch N commits.
type Writer struct {
	store store.Store
	log   zerolog.Logger
	runID uuid.UUID
}

// NewWriter creates a Writer stamped with a fresh import run ID.
func NewWriter(st store.Store, log zerolog.Logger) *Writer {
	runID := uuid.New()
	return &Writer{
		store: st,
		log:   log.With().Str("import_run", runID.String()).Logger(),
		runID: runID,
	}
}

// RunID identifies this import run in logs and summaries.
func (w *Writer) RunID() uuid.UUID { return w.runID }

// WriteFees upserts fee schedule records in batches of FeeBatchSize.
func (w *Writer) WriteFees(ctx context.Context, records []model.FeeRecord, onProgress ProgressFunc) WriteResult {
	rows := make([][]any, len(records))
	for i := range records {
		rows[i] = records[i].Values()
	}
	return w.writeBatches(ctx, store.TableBenchmarkFees, model.FeeRecord{}.Columns(), rows, feeConflictCols, FeeBatchSize, onProgress)
}

// WriteGPCI upserts GPCI records in batches of GPCIBatchSize.
func (w *Writer) WriteGPCI(ctx context.Context, records []model.GPCIRecord, onProgress ProgressFunc) WriteResult {
	rows := make([][]any, len(records))
	for i := range records {
		rows[i] = records[i].Values()
	}
	return w.writeBatches(ctx, store.TableGPCI, model.GPCIRecord{}.Columns(), rows, gpciConflictCols, GPCIBatchSize, onProgress)
}

// WriteZips upserts crosswalk records in batches of ZipBatchSize. Callers
// should dedupe by ZIP5 first; the conflict target rejects duplicate ZIPs
// within one batch otherwise.
func (w *Writer) WriteZips(ctx context.Context, records []model.ZipLocalityRecord, onProgress ProgressFunc) WriteResult {
	rows := make([][]any, len(records))
	for i := range records {
		rows[i] = records[i].Values()
	}
	return w.writeBatches(ctx, store.TableZipLocality, model.ZipLocalityRecord{}.Columns(), rows, zipConflictCols, ZipBatchSize, onProgress)
}

// writeBatches splits rows into fixed-size batches and writes them
// sequentially. A failing batch halts the import; the result carries the
// count committed so far together with the error.
func (w *Writer) writeBatches(ctx context.Context, table string, columns []string, rows [][]any, conflictCols []string, batchSize int, onProgress ProgressFunc) WriteResult {
	total := len(rows)
	imported := 0
	batches := 0

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		if err := w.store.UpsertBatch(ctx, table, columns, rows[start:end], conflictCols); err != nil {
			return WriteResult{
				Imported: imported,
				Batches:  batches,
				Err:      fmt.Errorf("batch %d (rows %d-%d): %w", batches+1, start, end-1, err),
			}
		}
		imported = end
		batches++
		w.log.Debug().Str("table", table).Int("imported", imported).Int("total", total).Msg("batch committed")
		if onProgress != nil {
			onProgress(imported, total)
		}
	}

	return WriteResult{Success: true, Imported: imported, Batches: batches}
}
