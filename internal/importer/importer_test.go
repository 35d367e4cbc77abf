package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/benchref/internal/model"
	"github.com/gyeh/benchref/internal/store"
)

// fakeStore records upsert batches and can fail on a chosen batch number.
type fakeStore struct {
	batches     [][][]any
	tables      []string
	conflicts   [][]string
	failAtBatch int // 1-based; 0 = never fail
}

func (f *fakeStore) CountExact(ctx context.Context, table string) (int64, error) { return 0, nil }

func (f *fakeStore) FindByDescriptionSubstring(ctx context.Context, table, token string, fl store.Filters, limit int) ([]store.CodeRow, error) {
	return nil, nil
}

func (f *fakeStore) FindByExactKey(ctx context.Context, table, keyColumn, keyValue string) (map[string]string, bool, error) {
	return nil, false, nil
}

func (f *fakeStore) UpsertBatch(ctx context.Context, table string, columns []string, rows [][]any, conflictCols []string) error {
	if f.failAtBatch > 0 && len(f.batches)+1 == f.failAtBatch {
		return errors.New("deadlock detected")
	}
	f.batches = append(f.batches, rows)
	f.tables = append(f.tables, table)
	f.conflicts = append(f.conflicts, conflictCols)
	return nil
}

func feeGrid(rows ...[]string) [][]string {
	grid := [][]string{{"HCPCS", "MOD", "Locality", "Description", "Status", "Non-Facility Fee", "Facility Fee", "Year"}}
	return append(grid, rows...)
}

func TestParseFees(t *testing.T) {
	grid := feeGrid(
		[]string{"99213", "", "01", "Office visit", "A", "$92.47", "65.00", "2026"},
		[]string{"E0114", "NU", "01", "Crutches", "A", "45.10", "", ""},
		[]string{"", "", "01", "no code row", "A", "1.00", "", ""},
		[]string{"00100", "", "01", "Anesthesia salivary", "A", "", "", "2026"},
	)
	records, dropped, err := ParseFees(grid, 2025)
	if err != nil {
		t.Fatalf("ParseFees: %v", err)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(records) != 3 {
		t.Fatalf("parsed %d records, want 3", len(records))
	}

	r := records[0]
	if r.Code != "99213" || r.Year != 2026 || r.Locality != "01" {
		t.Errorf("unexpected first record: %+v", r)
	}
	if r.NonFacilityFeeCents == nil || *r.NonFacilityFeeCents != 9247 {
		t.Errorf("non-facility cents = %v, want 9247", r.NonFacilityFeeCents)
	}
	if records[1].Modifier != "NU" || records[1].Year != 2025 {
		t.Errorf("unexpected second record: %+v", records[1])
	}
	if records[1].FacilityFeeCents != nil {
		t.Errorf("blank fee should be nil, got %v", *records[1].FacilityFeeCents)
	}
	// Leading zeros must survive: the code is text, never a number.
	if records[2].Code != "00100" {
		t.Errorf("code = %q, want 00100 with leading zeros intact", records[2].Code)
	}
}

func TestParseFees_MissingRequiredColumn(t *testing.T) {
	grid := [][]string{{"Description", "Fee"}, {"no code column", "1.00"}}
	if _, _, err := ParseFees(grid, 2026); err == nil {
		t.Fatal("expected error for missing code column")
	}
}

func TestParseGPCI(t *testing.T) {
	grid := [][]string{
		{"State", "Locality", "Locality Name", "Work GPCI", "PE GPCI", "MP GPCI"},
		{"CA", "18", "Los Angeles", "1.043", "1.176", "0.668"},
		{"", "", "missing locality", "1.0", "1.0", "1.0"},
	}
	records, dropped, err := ParseGPCI(grid, 2026)
	if err != nil {
		t.Fatalf("ParseGPCI: %v", err)
	}
	if dropped != 1 || len(records) != 1 {
		t.Fatalf("records=%d dropped=%d, want 1/1", len(records), dropped)
	}
	r := records[0]
	if r.Locality != "18" || r.State != "CA" || r.WorkGPCI != 1.043 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.Year != 2026 {
		t.Errorf("year = %d, want default 2026", r.Year)
	}
}

func TestParseZips(t *testing.T) {
	grid := [][]string{
		{"ZIP Code", "State", "Carrier", "Locality", "Year"},
		{"00501", "NY", "13202", "01", "2026"},
		{"62704-1234", "IL", "06302", "16", "2026"},
		{"abc", "XX", "", "", ""},
	}
	records, dropped, err := ParseZips(grid, 2026)
	if err != nil {
		t.Fatalf("ParseZips: %v", err)
	}
	if dropped != 1 || len(records) != 2 {
		t.Fatalf("records=%d dropped=%d, want 2/1", len(records), dropped)
	}
	if records[0].Zip5 != "00501" {
		t.Errorf("zip = %q, want 00501 with leading zeros intact", records[0].Zip5)
	}
	if records[1].Zip5 != "62704" {
		t.Errorf("zip = %q, want 62704 from ZIP+4", records[1].Zip5)
	}
}

func TestDedupeZips_HigherYearWins(t *testing.T) {
	records := []model.ZipLocalityRecord{
		{Zip5: "10001", Locality: "old", EffectiveYear: 2024},
		{Zip5: "90210", Locality: "18", EffectiveYear: 2026},
		{Zip5: "10001", Locality: "new", EffectiveYear: 2026},
	}
	deduped, skipped := DedupeZips(records)
	if skipped != 1 {
		t.Errorf("duplicatesSkipped = %d, want 1", skipped)
	}
	if len(deduped) != 2 {
		t.Fatalf("deduped to %d records, want 2", len(deduped))
	}
	// First-seen order preserved, newer year retained in place.
	if deduped[0].Zip5 != "10001" || deduped[0].EffectiveYear != 2026 || deduped[0].Locality != "new" {
		t.Errorf("unexpected winner: %+v", deduped[0])
	}
}

func TestDedupeZips_TieKeepsFirstSeen(t *testing.T) {
	records := []model.ZipLocalityRecord{
		{Zip5: "10001", Locality: "first", EffectiveYear: 2026},
		{Zip5: "10001", Locality: "second", EffectiveYear: 2026},
	}
	deduped, skipped := DedupeZips(records)
	if skipped != 1 || len(deduped) != 1 || deduped[0].Locality != "first" {
		t.Errorf("tie handling wrong: %+v skipped=%d", deduped, skipped)
	}
}

func TestWriteZips_BatchingAndProgress(t *testing.T) {
	st := &fakeStore{}
	w := NewWriter(st, zerolog.Nop())

	records := make([]model.ZipLocalityRecord, 2500)
	for i := range records {
		records[i] = model.ZipLocalityRecord{Zip5: fmt.Sprintf("%05d", 10000+i), EffectiveYear: 2026}
	}

	var progress [][2]int
	res := w.WriteZips(context.Background(), records, func(imported, total int) {
		progress = append(progress, [2]int{imported, total})
	})

	if !res.Success || res.Imported != 2500 || res.Batches != 3 {
		t.Fatalf("result = %+v, want 2500 imported in 3 batches", res)
	}
	if len(st.batches) != 3 || len(st.batches[0]) != 1000 || len(st.batches[2]) != 500 {
		t.Errorf("batch sizes wrong: %d batches", len(st.batches))
	}
	want := [][2]int{{1000, 2500}, {2000, 2500}, {2500, 2500}}
	if len(progress) != len(want) {
		t.Fatalf("progress calls = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %v, want %v", i, progress[i], want[i])
		}
	}
	if st.conflicts[0][0] != "zip5" {
		t.Errorf("conflict key = %v, want zip5", st.conflicts[0])
	}
}

func TestWriteFees_FailureHaltsAndReportsCommitted(t *testing.T) {
	st := &fakeStore{failAtBatch: 3}
	w := NewWriter(st, zerolog.Nop())

	records := make([]model.FeeRecord, 2200) // 5 batches of 500
	for i := range records {
		records[i] = model.FeeRecord{Code: fmt.Sprintf("%05d", i), Year: 2026}
	}

	res := w.WriteFees(context.Background(), records, nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Imported != 1000 {
		t.Errorf("imported = %d, want 1000 (batches 1-2 only)", res.Imported)
	}
	if res.Err == nil {
		t.Fatal("expected a non-nil error")
	}
	if len(st.batches) != 2 {
		t.Errorf("store received %d batches after failure, want 2", len(st.batches))
	}
}

func TestRun_ZipDatasetEndToEnd(t *testing.T) {
	st := &fakeStore{}
	grid := [][]string{
		{"ZIP", "State", "Locality", "Year"},
		{"10001", "NY", "01", "2024"},
		{"10001", "NY", "01", "2026"},
		{"90210", "CA", "18", "2026"},
	}
	summary, err := Run(context.Background(), st, zerolog.Nop(), grid, Options{Dataset: DatasetZips, DefaultYear: 2026})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.DuplicatesSkipped != 1 {
		t.Errorf("duplicatesSkipped = %d, want 1", summary.DuplicatesSkipped)
	}
	if summary.Imported != 2 || !summary.Success() {
		t.Errorf("summary = %+v, want 2 imported", summary)
	}
	// The retained 10001 row must be the 2026 one.
	if st.batches[0][0][4] != 2026 {
		t.Errorf("effective year = %v, want 2026", st.batches[0][0][4])
	}
}

func TestRun_PhaseTaggedErrors(t *testing.T) {
	badGrid := [][]string{{"Description"}, {"no zip column"}}
	_, err := Run(context.Background(), &fakeStore{}, zerolog.Nop(), badGrid, Options{Dataset: DatasetZips})
	var pe *PhaseError
	if !errors.As(err, &pe) || pe.Phase != PhaseParse {
		t.Fatalf("err = %v, want parse-phase error", err)
	}

	grid := [][]string{
		{"ZIP", "State", "Locality", "Year"},
		{"10001", "NY", "01", "2026"},
	}
	summary, err := Run(context.Background(), &fakeStore{failAtBatch: 1}, zerolog.Nop(), grid, Options{Dataset: DatasetZips, DefaultYear: 2026})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.As(summary.Err, &pe) || pe.Phase != PhaseWrite {
		t.Errorf("summary err = %v, want write-phase error", summary.Err)
	}
	if summary.Success() {
		t.Error("summary should not report success after a write failure")
	}
}

func TestRun_UnknownDataset(t *testing.T) {
	if _, err := Run(context.Background(), &fakeStore{}, zerolog.Nop(), [][]string{{"x"}}, Options{Dataset: "bogus"}); err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}
