package locate

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/benchref/internal/model"
	"github.com/gyeh/benchref/internal/store"
)

// fakeStore serves canned crosswalk rows keyed by ZIP5.
type fakeStore struct {
	rows map[string]map[string]string
	err  error
}

func (f *fakeStore) CountExact(ctx context.Context, table string) (int64, error) { return 0, nil }

func (f *fakeStore) FindByDescriptionSubstring(ctx context.Context, table, token string, fl store.Filters, limit int) ([]store.CodeRow, error) {
	return nil, nil
}

func (f *fakeStore) FindByExactKey(ctx context.Context, table, keyColumn, keyValue string) (map[string]string, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	row, ok := f.rows[keyValue]
	return row, ok, nil
}

func (f *fakeStore) UpsertBatch(ctx context.Context, table string, columns []string, rows [][]any, conflictCols []string) error {
	return nil
}

func TestScan_AddressWithStatePattern(t *testing.T) {
	inf := New(&fakeStore{}, zerolog.Nop())
	ev := inf.Scan(context.Background(), "Patient address: 123 Main St, Springfield, IL 62704")

	if !ev.Ran {
		t.Fatal("scan should report Ran")
	}
	if ev.Zip5 != "62704" {
		t.Errorf("zip5 = %q, want 62704", ev.Zip5)
	}
	if ev.StateAbbr != "IL" {
		t.Errorf("state = %q, want IL", ev.StateAbbr)
	}
	if ev.StateSource != model.StateSourceTextPattern {
		t.Errorf("source = %s, want text_pattern", ev.StateSource)
	}
	if ev.Confidence != model.ConfidenceHigh {
		t.Errorf("confidence = %s, want high", ev.Confidence)
	}
	if ev.Evidence == "" || len(ev.Evidence) > 80 {
		t.Errorf("evidence = %q, want non-empty snippet of at most 80 chars", ev.Evidence)
	}
}

func TestScan_FaxDigitsNotAZip(t *testing.T) {
	inf := New(&fakeStore{}, zerolog.Nop())
	ev := inf.Scan(context.Background(), "Fax: (555) 962704")

	if ev.Zip5 != "" {
		t.Errorf("zip5 = %q, want none from a fax number", ev.Zip5)
	}
	if ev.Confidence != model.ConfidenceLow {
		t.Errorf("confidence = %s, want low", ev.Confidence)
	}
}

func TestScan_PhoneContextDemotedVersusAddress(t *testing.T) {
	inf := New(&fakeStore{}, zerolog.Nop())
	// Two in-range ZIP-shaped runs: one in a phone context, one in an
	// address context. The address one must win.
	text := "Call our office, phone 55512 today." +
		" Billing statement mailed to patient address PO Box 9, Denver, CO 80203."
	ev := inf.Scan(context.Background(), text)

	if ev.Zip5 != "80203" {
		t.Errorf("zip5 = %q, want 80203 (address context over phone context)", ev.Zip5)
	}
	if ev.StateAbbr != "CO" || ev.StateSource != model.StateSourceTextPattern {
		t.Errorf("state = %q via %s, want CO via text_pattern", ev.StateAbbr, ev.StateSource)
	}
}

func TestScan_ZipLookupFromStore(t *testing.T) {
	st := &fakeStore{rows: map[string]map[string]string{
		"10001": {"zip5": "10001", "state": "NY", "locality": "01"},
	}}
	inf := New(st, zerolog.Nop())
	ev := inf.Scan(context.Background(), "Statement for services, zip 10001 on file.")

	if ev.Zip5 != "10001" {
		t.Fatalf("zip5 = %q, want 10001", ev.Zip5)
	}
	if ev.StateAbbr != "NY" {
		t.Errorf("state = %q, want NY from crosswalk", ev.StateAbbr)
	}
	if ev.StateSource != model.StateSourceZipLookup {
		t.Errorf("source = %s, want zip_lookup", ev.StateSource)
	}
	if ev.Confidence != model.ConfidenceMedium {
		t.Errorf("confidence = %s, want medium for looked-up state", ev.Confidence)
	}
}

func TestScan_PrefixFallbackWhenLookupMisses(t *testing.T) {
	inf := New(&fakeStore{}, zerolog.Nop())
	ev := inf.Scan(context.Background(), "Provider billing address zip 90210 not on file.")

	if ev.Zip5 != "90210" {
		t.Fatalf("zip5 = %q, want 90210", ev.Zip5)
	}
	if ev.StateAbbr != "CA" {
		t.Errorf("state = %q, want CA from prefix table", ev.StateAbbr)
	}
	if ev.StateSource != model.StateSourceZipLookup {
		t.Errorf("source = %s, want zip_lookup for prefix approximation", ev.StateSource)
	}
	if ev.Confidence != model.ConfidenceMedium {
		t.Errorf("confidence = %s, want medium", ev.Confidence)
	}
}

func TestScan_StoreErrorFallsBackToPrefix(t *testing.T) {
	st := &fakeStore{err: errors.New("connection refused")}
	inf := New(st, zerolog.Nop())
	ev := inf.Scan(context.Background(), "Provider billing address zip 97201 not on file.")

	if ev.StateAbbr != "OR" {
		t.Errorf("state = %q, want OR via prefix despite store failure", ev.StateAbbr)
	}
}

func TestScan_ShortText(t *testing.T) {
	inf := New(&fakeStore{}, zerolog.Nop())
	ev := inf.Scan(context.Background(), "  62704  ")

	if !ev.Ran {
		t.Fatal("short text should still report Ran")
	}
	if ev.Confidence != model.ConfidenceLow {
		t.Errorf("confidence = %s, want low", ev.Confidence)
	}
	if ev.Note == "" {
		t.Error("short text should carry an explanatory note")
	}
	if ev.Zip5 != "" {
		t.Errorf("zip5 = %q, want none for short text", ev.Zip5)
	}
}

func TestScan_OutOfRangeZipDiscarded(t *testing.T) {
	inf := New(&fakeStore{}, zerolog.Nop())
	// 00100 is below the lowest assigned US ZIP.
	ev := inf.Scan(context.Background(), "Patient address on record: 00100 somewhere.")
	if ev.Zip5 != "" {
		t.Errorf("zip5 = %q, want out-of-range candidate discarded", ev.Zip5)
	}
}

func TestStateForPrefix(t *testing.T) {
	cases := []struct {
		prefix int
		state  string
		ok     bool
	}{
		{902, "CA", true},
		{967, "HI", true}, // HI band wins over the broad CA band
		{100, "NY", true},
		{5, "NY", true},
		{330, "FL", true},
		{429, "", false}, // gap between KY and OH bands
	}
	for _, tc := range cases {
		got, ok := stateForPrefix(tc.prefix)
		if got != tc.state || ok != tc.ok {
			t.Errorf("stateForPrefix(%d) = %q,%v want %q,%v", tc.prefix, got, ok, tc.state, tc.ok)
		}
	}
}
