// Package importer parses tabular reference datasets and writes them into
// the reference store in conflict-safe, fixed-size batches.
package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gyeh/benchref/internal/codes"
	"github.com/gyeh/benchref/internal/model"
)

// column binds one source header to a record field. Headers are matched
// after lowercasing and whitespace collapsing, so "HCPCS Code" and
// "hcpcs_code" both bind.
type column struct {
	names    []string
	required bool
}

var feeColumns = map[string]column{
	"year":     {names: []string{"year", "calendar year"}},
	"code":     {names: []string{"hcpcs", "hcpcs code", "cpt", "code"}, required: true},
	"modifier": {names: []string{"mod", "modifier"}},
	"locality": {names: []string{"locality", "locality number"}},
	"desc":     {names: []string{"description", "short description"}},
	"status":   {names: []string{"status", "status code", "proc status"}},
	"nonfac":   {names: []string{"non-facility fee", "non facility fee", "nonfacility price"}},
	"fac":      {names: []string{"facility fee", "facility price"}},
}

var gpciColumns = map[string]column{
	"year":     {names: []string{"year", "calendar year"}},
	"locality": {names: []string{"locality", "locality number"}, required: true},
	"state":    {names: []string{"state", "st"}},
	"name":     {names: []string{"locality name", "name"}},
	"work":     {names: []string{"work gpci", "pw gpci", "work"}},
	"pe":       {names: []string{"pe gpci", "pe"}},
	"mp":       {names: []string{"mp gpci", "mp"}},
}

var zipColumns = map[string]column{
	"zip":      {names: []string{"zip", "zip code", "zip5"}, required: true},
	"state":    {names: []string{"state", "st"}},
	"carrier":  {names: []string{"carrier", "carrier number"}},
	"locality": {names: []string{"locality", "locality number"}},
	"year":     {names: []string{"year", "effective year"}},
}

// colIndex resolves each logical column to a grid position from the header
// row, failing when a required column is absent.
func colIndex(header []string, spec map[string]column, dataset string) (map[string]int, error) {
	norm := make(map[string]int, len(header))
	for i, h := range header {
		norm[normalizeHeader(h)] = i
	}

	idx := make(map[string]int, len(spec))
	for field, col := range spec {
		found := -1
		for _, name := range col.names {
			if i, ok := norm[name]; ok {
				found = i
				break
			}
		}
		if found < 0 && col.required {
			return nil, fmt.Errorf("%s grid missing required column %q", dataset, col.names[0])
		}
		idx[field] = found
	}
	return idx, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}

// cell returns the trimmed cell at the mapped position, or "" when the
// column is absent or the row is short.
func cell(row []string, idx map[string]int, field string) string {
	i := idx[field]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseFees converts a fee schedule grid (header row first) into typed
// records. Rows without a code are dropped and counted. defaultYear fills
// rows whose year cell is blank.
func ParseFees(grid [][]string, defaultYear int) ([]model.FeeRecord, int, error) {
	if len(grid) == 0 {
		return nil, 0, fmt.Errorf("fee grid is empty")
	}
	idx, err := colIndex(grid[0], feeColumns, "fee")
	if err != nil {
		return nil, 0, err
	}

	var out []model.FeeRecord
	dropped := 0
	for _, row := range grid[1:] {
		code := codes.Normalize(cell(row, idx, "code"))
		if code == "" {
			dropped++
			continue
		}
		status := strings.ToUpper(cell(row, idx, "status"))
		out = append(out, model.FeeRecord{
			Year:                parseYear(cell(row, idx, "year"), defaultYear),
			Code:                code,
			Modifier:            codes.Normalize(cell(row, idx, "modifier")),
			Locality:            cell(row, idx, "locality"),
			Description:         cell(row, idx, "desc"),
			StatusCode:          status,
			QualityProgram:      status == "M",
			NonFacilityFeeCents: parseMoneyCents(cell(row, idx, "nonfac")),
			FacilityFeeCents:    parseMoneyCents(cell(row, idx, "fac")),
		})
	}
	return out, dropped, nil
}

// ParseGPCI converts a GPCI grid into typed records, dropping rows without
// a locality number.
func ParseGPCI(grid [][]string, defaultYear int) ([]model.GPCIRecord, int, error) {
	if len(grid) == 0 {
		return nil, 0, fmt.Errorf("gpci grid is empty")
	}
	idx, err := colIndex(grid[0], gpciColumns, "gpci")
	if err != nil {
		return nil, 0, err
	}

	var out []model.GPCIRecord
	dropped := 0
	for _, row := range grid[1:] {
		locality := cell(row, idx, "locality")
		if locality == "" {
			dropped++
			continue
		}
		out = append(out, model.GPCIRecord{
			Year:         parseYear(cell(row, idx, "year"), defaultYear),
			Locality:     locality,
			State:        strings.ToUpper(cell(row, idx, "state")),
			LocalityName: cell(row, idx, "name"),
			WorkGPCI:     parseFactor(cell(row, idx, "work")),
			PEGPCI:       parseFactor(cell(row, idx, "pe")),
			MPGPCI:       parseFactor(cell(row, idx, "mp")),
		})
	}
	return out, dropped, nil
}

// ParseZips converts a ZIP crosswalk grid into typed records, dropping
// rows without a usable 5-digit ZIP. The ZIP is kept as text; a value like
// "00501" must survive verbatim.
func ParseZips(grid [][]string, defaultYear int) ([]model.ZipLocalityRecord, int, error) {
	if len(grid) == 0 {
		return nil, 0, fmt.Errorf("zip grid is empty")
	}
	idx, err := colIndex(grid[0], zipColumns, "zip")
	if err != nil {
		return nil, 0, err
	}

	var out []model.ZipLocalityRecord
	dropped := 0
	for _, row := range grid[1:] {
		zip := cell(row, idx, "zip")
		if len(zip) > 5 {
			zip = zip[:5] // ZIP+4 sources carry the extension inline
		}
		if len(zip) != 5 || !allDigits(zip) {
			dropped++
			continue
		}
		out = append(out, model.ZipLocalityRecord{
			Zip5:          zip,
			State:         strings.ToUpper(cell(row, idx, "state")),
			Carrier:       cell(row, idx, "carrier"),
			Locality:      cell(row, idx, "locality"),
			EffectiveYear: parseYear(cell(row, idx, "year"), defaultYear),
		})
	}
	return out, dropped, nil
}

// DedupeZips collapses records sharing a ZIP5. The record with the higher
// effective year wins; on a tie the first seen wins. Output preserves
// first-seen order. The second return is the number of rows skipped.
func DedupeZips(records []model.ZipLocalityRecord) ([]model.ZipLocalityRecord, int) {
	byZip := make(map[string]int, len(records))
	var out []model.ZipLocalityRecord
	skipped := 0

	for _, r := range records {
		if i, ok := byZip[r.Zip5]; ok {
			skipped++
			if r.EffectiveYear > out[i].EffectiveYear {
				out[i] = r
			}
			continue
		}
		byZip[r.Zip5] = len(out)
		out = append(out, r)
	}
	return out, skipped
}

func parseYear(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	if y, err := strconv.Atoi(s); err == nil && y > 1900 && y < 3000 {
		return y
	}
	return fallback
}

// parseMoneyCents parses a dollar amount ("$1,234.56") into integer
// cents. Blank or unparseable values yield nil.
func parseMoneyCents(s string) *int64 {
	s = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	c := int64(math.Round(v * 100))
	return &c
}

// parseFactor parses a GPCI unit factor; blanks default to the neutral 1.0.
func parseFactor(s string) float64 {
	if s == "" {
		return 1.0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1.0
	}
	return v
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
