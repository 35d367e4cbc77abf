// Package resolver resolves free-text procedure descriptions into ranked
// code candidates, querying the reference store first and falling back to
// the in-memory master list index when the store yields nothing.
package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gyeh/benchref/internal/lexindex"
	"github.com/gyeh/benchref/internal/model"
	"github.com/gyeh/benchref/internal/store"
)

// Search method labels reported on results.
const (
	MethodReferenceStore = "reference_store"
	MethodFallbackMaster = "fallback_cpt_master"
)

// Tunable thresholds for remote querying and primary selection. Kept as
// named constants so they can be exercised independently of the algorithm.
const (
	minQueryLen       = 8
	minTokenLen       = 3
	remoteTokenMinLen = 4
	maxRemoteTokens   = 3
	remoteRowLimit    = 20
	minOverlapScore   = 0.2

	primaryHighScore    = 0.6
	primaryHighMaxCands = 2
	primaryMedScore     = 0.4
	primaryMedLowScore  = 0.3
	primaryMedMaxCands  = 3

	fallbackMaxResults = 5
)

// stopwords are dropped during query tokenization. Tokens under
// minTokenLen are dropped regardless.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "that": {},
	"this": {}, "into": {}, "each": {}, "other": {}, "than": {}, "when": {},
	"will": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"not": {}, "per": {}, "via": {}, "upon": {}, "using": {}, "without": {},
	"was": {}, "were": {}, "are": {},
}

// Result is the outcome of one resolution request. Validation failures
// surface here as IsValidQuery=false, never as an error.
type Result struct {
	IsValidQuery bool
	Reason       string
	SearchMethod string
	Candidates   []model.MatchCandidate
	Primary      *model.MatchCandidate
}

// Resolver runs the validate → query-remote → escalate → select-primary
// chain for one free-text description at a time.
type Resolver struct {
	store store.Store
	index *lexindex.Index
	log   zerolog.Logger
	year  int
}

// New creates a Resolver scoped to one benchmark year. The index may be
// unbuilt; it is initialized lazily on first fallback.
func New(st store.Store, index *lexindex.Index, log zerolog.Logger, year int) *Resolver {
	return &Resolver{store: st, index: index, log: log, year: year}
}

// Resolve runs the full resolution chain for a free-text description.
func (r *Resolver) Resolve(ctx context.Context, query string) Result {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < minQueryLen {
		return Result{Reason: "query too short"}
	}
	tokens := meaningfulTokens(trimmed)
	if len(tokens) == 0 {
		return Result{Reason: "query has no meaningful content"}
	}

	candidates := r.queryRemote(ctx, tokens)
	method := MethodReferenceStore

	if len(candidates) == 0 {
		candidates = r.fallbackLocal(ctx, trimmed)
		method = MethodFallbackMaster
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	primary := selectPrimary(candidates)

	return Result{
		IsValidQuery: true,
		SearchMethod: method,
		Candidates:   candidates,
		Primary:      primary,
	}
}

// meaningfulTokens tokenizes a query, dropping short tokens and stopwords.
func meaningfulTokens(query string) []string {
	var out []string
	for _, t := range lexindex.Tokenize(query) {
		if len(t) < minTokenLen {
			continue
		}
		if _, ok := stopwords[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// queryRemote issues one substring query per search token against the fee
// table, deduplicates hits by code, and keeps candidates whose token
// overlap with the query clears the floor. A store failure on one token is
// logged and treated as zero rows for that token.
func (r *Resolver) queryRemote(ctx context.Context, tokens []string) []model.MatchCandidate {
	var searchTokens []string
	for _, t := range tokens {
		if len(t) >= remoteTokenMinLen {
			searchTokens = append(searchTokens, t)
		}
		if len(searchTokens) == maxRemoteTokens {
			break
		}
	}

	filters := store.Filters{Year: r.year, ExcludeQualityProgram: true}
	seen := make(map[string]struct{})
	var hits []store.CodeRow

	for _, tok := range searchTokens {
		rows, err := r.store.FindByDescriptionSubstring(ctx, store.TableBenchmarkFees, tok, filters, remoteRowLimit)
		if err != nil {
			r.log.Warn().Err(err).Str("token", tok).Msg("reference store query failed, treating as empty")
			continue
		}
		for _, row := range rows {
			if _, dup := seen[row.Code]; dup {
				continue
			}
			seen[row.Code] = struct{}{}
			hits = append(hits, row)
		}
	}

	var out []model.MatchCandidate
	for _, h := range hits {
		score, matched := overlapScore(tokens, h.Description)
		if score < minOverlapScore {
			continue
		}
		out = append(out, model.MatchCandidate{
			Code:        h.Code,
			Description: h.Description,
			Score:       score,
			MatchReason: matched,
		})
	}
	return out
}

// overlapScore computes the token-overlap between query tokens and a
// candidate description. A query token matches when it equals, is a prefix
// of, or extends a description token. The score is matches over the larger
// of the two token counts.
func overlapScore(queryTokens []string, description string) (float64, string) {
	candTokens := lexindex.Tokenize(description)
	if len(candTokens) == 0 {
		return 0, ""
	}

	matches := 0
	var matchedTokens []string
	for _, qt := range queryTokens {
		for _, ct := range candTokens {
			if qt == ct || strings.HasPrefix(ct, qt) || strings.HasPrefix(qt, ct) {
				matches++
				matchedTokens = append(matchedTokens, qt)
				break
			}
		}
	}

	denom := len(queryTokens)
	if len(candTokens) > denom {
		denom = len(candTokens)
	}
	reason := "matched tokens: " + strings.Join(matchedTokens, ", ")
	return float64(matches) / float64(denom), reason
}

// fallbackLocal delegates the full query text to the lexical index,
// initializing it lazily on first use.
func (r *Resolver) fallbackLocal(ctx context.Context, query string) []model.MatchCandidate {
	if err := r.index.Initialize(ctx); err != nil {
		r.log.Warn().Err(err).Msg("lexical index unavailable for fallback")
		return nil
	}
	return r.index.Search(query, fallbackMaxResults)
}

// selectPrimary reclassifies every candidate with the cardinality-aware
// tiers and returns the first high-confidence candidate, else the first
// medium, else the first by score, else nil.
func selectPrimary(candidates []model.MatchCandidate) *model.MatchCandidate {
	n := len(candidates)
	if n == 0 {
		return nil
	}

	for i := range candidates {
		candidates[i].Confidence = classifyWithCardinality(candidates[i].Score, n)
	}
	for _, want := range []model.Confidence{model.ConfidenceHigh, model.ConfidenceMedium} {
		for i := range candidates {
			if candidates[i].Confidence == want {
				return &candidates[i]
			}
		}
	}
	return &candidates[0]
}

// classifyWithCardinality applies the confidence tiers with the result-set
// size rule: high confidence additionally requires a small candidate set.
func classifyWithCardinality(score float64, n int) model.Confidence {
	switch {
	case score >= primaryHighScore && n <= primaryHighMaxCands:
		return model.ConfidenceHigh
	case score >= primaryMedScore:
		return model.ConfidenceMedium
	case score >= primaryMedLowScore && n <= primaryMedMaxCands:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
