package model

import "time"

// ImportSummary aggregates the outcome of one bulk import run.
type ImportSummary struct {
	Dataset           string
	ImportRunID       string
	RowsParsed        int
	RowsDropped       int
	DuplicatesSkipped int
	Imported          int
	Batches           int
	DurationParse     time.Duration
	DurationWrite     time.Duration
	DurationTotal     time.Duration
	Err               error
}

// Success reports whether every parsed record was committed.
func (s *ImportSummary) Success() bool {
	return s.Err == nil
}
