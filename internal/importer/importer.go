package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/benchref/internal/model"
	"github.com/gyeh/benchref/internal/store"
)

// Dataset names accepted by Run.
const (
	DatasetFees = "fees"
	DatasetGPCI = "gpci"
	DatasetZips = "zip"
)

// Import phases, tagged onto failures.
const (
	PhaseParse = "parse"
	PhaseWrite = "write"
)

// PhaseError wraps an import failure with the phase that produced it.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string { return e.Phase + ": " + e.Err.Error() }
func (e *PhaseError) Unwrap() error { return e.Err }

// Options configures one import run.
type Options struct {
	Dataset     string
	DefaultYear int
	OnProgress  ProgressFunc
}

// Run parses a 2-D grid for the named dataset and writes it into the
// reference store. Parse errors abort before any write; write failures
// halt mid-import and the summary reports the committed count plus the
// triggering error.
func Run(ctx context.Context, st store.Store, log zerolog.Logger, grid [][]string, opts Options) (*model.ImportSummary, error) {
	totalStart := time.Now()
	w := NewWriter(st, log)

	summary := &model.ImportSummary{
		Dataset:     opts.Dataset,
		ImportRunID: w.RunID().String(),
	}

	parseStart := time.Now()
	var res WriteResult

	switch opts.Dataset {
	case DatasetFees:
		records, dropped, err := ParseFees(grid, opts.DefaultYear)
		if err != nil {
			return nil, &PhaseError{Phase: PhaseParse, Err: fmt.Errorf("fee grid: %w", err)}
		}
		summary.RowsParsed, summary.RowsDropped = len(records), dropped
		summary.DurationParse = time.Since(parseStart)
		logParsed(w.log, summary)

		writeStart := time.Now()
		res = w.WriteFees(ctx, records, opts.OnProgress)
		summary.DurationWrite = time.Since(writeStart)

	case DatasetGPCI:
		records, dropped, err := ParseGPCI(grid, opts.DefaultYear)
		if err != nil {
			return nil, &PhaseError{Phase: PhaseParse, Err: fmt.Errorf("gpci grid: %w", err)}
		}
		summary.RowsParsed, summary.RowsDropped = len(records), dropped
		summary.DurationParse = time.Since(parseStart)
		logParsed(w.log, summary)

		writeStart := time.Now()
		res = w.WriteGPCI(ctx, records, opts.OnProgress)
		summary.DurationWrite = time.Since(writeStart)

	case DatasetZips:
		records, dropped, err := ParseZips(grid, opts.DefaultYear)
		if err != nil {
			return nil, &PhaseError{Phase: PhaseParse, Err: fmt.Errorf("zip grid: %w", err)}
		}
		deduped, skipped := DedupeZips(records)
		summary.RowsParsed, summary.RowsDropped = len(deduped), dropped
		summary.DuplicatesSkipped = skipped
		summary.DurationParse = time.Since(parseStart)
		logParsed(w.log, summary)

		writeStart := time.Now()
		res = w.WriteZips(ctx, deduped, opts.OnProgress)
		summary.DurationWrite = time.Since(writeStart)

	default:
		return nil, fmt.Errorf("unknown dataset %q", opts.Dataset)
	}

	summary.Imported = res.Imported
	summary.Batches = res.Batches
	if res.Err != nil {
		summary.Err = &PhaseError{Phase: PhaseWrite, Err: res.Err}
	}
	summary.DurationTotal = time.Since(totalStart)

	evt := w.log.Info()
	if res.Err != nil {
		evt = w.log.Error().Err(res.Err)
	}
	evt.Str("dataset", opts.Dataset).
		Int("imported", summary.Imported).
		Int("parsed", summary.RowsParsed).
		Int("dropped", summary.RowsDropped).
		Int("duplicates_skipped", summary.DuplicatesSkipped).
		Str("duration", summary.DurationTotal.String()).
		Msg("import finished")

	return summary, nil
}

func logParsed(log zerolog.Logger, s *model.ImportSummary) {
	log.Info().
		Str("dataset", s.Dataset).
		Int("rows", s.RowsParsed).
		Int("dropped", s.RowsDropped).
		Int("duplicates_skipped", s.DuplicatesSkipped).
		Msg("grid parsed")
}
