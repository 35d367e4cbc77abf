package model

// Confidence is a coarse classification of a match's reliability.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// StateSource records how a state abbreviation was determined during a
// location scan.
type StateSource string

const (
	// StateSourceTextPattern means the state was pulled from a
	// "City, ST 12345" pattern in the document text.
	StateSourceTextPattern StateSource = "text_pattern"
	// StateSourceZipLookup means the state was resolved from the best ZIP,
	// either by crosswalk lookup or by ZIP-prefix approximation.
	StateSourceZipLookup StateSource = "zip_lookup"
	// StateSourceDirect means the caller supplied the state directly.
	StateSourceDirect StateSource = "direct"
)

// MasterEntry is one reference code definition from the master code list.
// Entries are loaded once per process and treated as read-only afterwards.
type MasterEntry struct {
	Code            string
	ShortLabel      string
	LongDescription string
	Section         string
	Category        string
	Synonyms        []string
}

// MatchCandidate is a scored result produced per query, never persisted.
type MatchCandidate struct {
	Code        string
	Description string
	Score       float64
	MatchReason string
	Confidence  Confidence
}

// LocationEvidence holds the outcome of a document-text location scan.
// Zip5 and StateAbbr are empty when nothing was found.
type LocationEvidence struct {
	Zip5        string
	StateAbbr   string
	Confidence  Confidence
	Evidence    string
	StateSource StateSource
	Ran         bool
	Note        string
}
