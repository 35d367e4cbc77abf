// Package locate infers a ZIP/state location from unstructured document
// text, scoring ZIP-shaped digit runs by their surrounding context.
package locate

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gyeh/benchref/internal/model"
	"github.com/gyeh/benchref/internal/store"
)

// Context scoring weights and window bounds.
const (
	minTextLen = 10

	windowBefore = 120
	windowAfter  = 20

	addressKeywordBonus = 3
	precedingStateBonus = 2
	phoneKeywordPenalty = -2
	statePrecedeWithin  = 20

	zipRangeMin = 501   // 00501
	zipRangeMax = 99950 // highest assigned US ZIP

	evidenceMaxLen = 80
)

// addressKeywords raise a ZIP candidate's score when present in its window.
var addressKeywords = []string{
	"address", "zip", "billing", "statement", "patient", "provider",
	"hospital", "clinic", "medical", "service", "po box", "street",
	"ave", "blvd",
}

// phoneKeywords lower the score; fax and phone numbers shed ZIP-shaped digit runs.
var phoneKeywords = []string{"phone", "fax", "tel", "call"}

var (
	zipPattern       = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	cityStatePattern = regexp.MustCompile(`,\s*([A-Za-z]{2})\s+\d{5}(?:-\d{4})?\b`)
	precedingState   = regexp.MustCompile(`\b([A-Za-z]{2})\b[\s,.]*$`)
)

type zipCandidate struct {
	zip5   string
	score  int
	window string
}

// Inferencer scans document text for location evidence, consulting the
// ZIP-to-locality crosswalk for state lookups when the text itself is
// inconclusive.
type Inferencer struct {
	store store.Store
	log   zerolog.Logger
}

// New creates an Inferencer. store may be nil, in which case state
// resolution skips straight to the prefix approximation.
func New(st store.Store, log zerolog.Logger) *Inferencer {
	return &Inferencer{store: st, log: log}
}

// Scan extracts the best-supported ZIP and state from text. It fails soft:
// every outcome, including unusably short input, is reported through the
// returned LocationEvidence rather than an error.
func (inf *Inferencer) Scan(ctx context.Context, text string) model.LocationEvidence {
	ev := model.LocationEvidence{Ran: true, Confidence: model.ConfidenceLow}

	if len(strings.TrimSpace(text)) < minTextLen {
		ev.Note = "text too short to scan"
		return ev
	}

	best := bestZipCandidate(text)
	if best != nil {
		ev.Zip5 = best.zip5
		if len(best.window) > evidenceMaxLen {
			ev.Evidence = best.window[:evidenceMaxLen]
		} else {
			ev.Evidence = best.window
		}
	}

	if state := stateFromPattern(text); state != "" {
		ev.StateAbbr = state
		ev.StateSource = model.StateSourceTextPattern
	} else if best != nil {
		if state := inf.stateFromZip(ctx, best.zip5); state != "" {
			ev.StateAbbr = state
			ev.StateSource = model.StateSourceZipLookup
		}
	}

	switch {
	case ev.Zip5 != "" && ev.StateSource == model.StateSourceTextPattern:
		ev.Confidence = model.ConfidenceHigh
	case ev.Zip5 != "" && ev.StateAbbr != "":
		ev.Confidence = model.ConfidenceMedium
	default:
		ev.Confidence = model.ConfidenceLow
	}
	return ev
}

// bestZipCandidate scores every ZIP-shaped digit run by its surrounding
// context and returns the highest-scoring in-range candidate, or nil.
func bestZipCandidate(text string) *zipCandidate {
	matches := zipPattern.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return nil
	}

	var candidates []zipCandidate
	for _, m := range matches {
		start, end := m[0], m[1]
		zip5 := text[m[2]:m[3]]

		n, err := strconv.Atoi(zip5)
		if err != nil || n < zipRangeMin || n > zipRangeMax {
			continue
		}

		wStart := start - windowBefore
		if wStart < 0 {
			wStart = 0
		}
		wEnd := end + windowAfter
		if wEnd > len(text) {
			wEnd = len(text)
		}
		window := text[wStart:wEnd]
		lower := strings.ToLower(window)

		score := 0
		for _, kw := range addressKeywords {
			if strings.Contains(lower, kw) {
				score += addressKeywordBonus
				break
			}
		}
		if stateImmediatelyPrecedes(text, start) {
			score += precedingStateBonus
		}
		for _, kw := range phoneKeywords {
			if strings.Contains(lower, kw) {
				score += phoneKeywordPenalty
				break
			}
		}

		candidates = append(candidates, zipCandidate{zip5: zip5, score: score, window: window})
	}

	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return &candidates[0]
}

// stateImmediatelyPrecedes reports whether a valid state abbreviation sits
// within the 20 characters before the ZIP at offset.
func stateImmediatelyPrecedes(text string, offset int) bool {
	start := offset - statePrecedeWithin
	if start < 0 {
		start = 0
	}
	before := text[start:offset]
	m := precedingState.FindStringSubmatch(before)
	return m != nil && isStateAbbr(strings.ToUpper(m[1]))
}

// stateFromPattern finds the first "City, ST 12345"-style pattern whose
// abbreviation is a real state.
func stateFromPattern(text string) string {
	for _, m := range cityStatePattern.FindAllStringSubmatch(text, -1) {
		abbr := strings.ToUpper(m[1])
		if isStateAbbr(abbr) {
			return abbr
		}
	}
	return ""
}

// stateFromZip resolves a state for the ZIP, first by exact crosswalk
// lookup, then by the approximate prefix table. Store failures are logged
// and treated as a missed lookup.
func (inf *Inferencer) stateFromZip(ctx context.Context, zip5 string) string {
	if inf.store != nil {
		row, ok, err := inf.store.FindByExactKey(ctx, store.TableZipLocality, "zip5", zip5)
		if err != nil {
			inf.log.Warn().Err(err).Str("zip5", zip5).Msg("zip crosswalk lookup failed")
		} else if ok {
			if state := strings.ToUpper(row["state"]); isStateAbbr(state) {
				return state
			}
		}
	}

	prefix, err := strconv.Atoi(zip5[:3])
	if err != nil {
		return ""
	}
	if state, ok := stateForPrefix(prefix); ok {
		return state
	}
	return ""
}
