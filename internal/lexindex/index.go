// Package lexindex builds an in-memory token index over the master code
// list and answers ranked free-text searches against it.
package lexindex

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gyeh/benchref/internal/model"
)

// Scoring constants. An exact token hit counts full weight, a prefix hit
// half; the tiers classify the final normalized score.
const (
	exactTokenWeight  = 1.0
	prefixTokenWeight = 0.5
	prefixMinLen      = 3

	scoreHigh   = 0.8
	scoreMedium = 0.5

	DefaultMaxResults = 5
)

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// Tokenize lowercases text and splits it on non-alphanumeric boundaries,
// discarding empty tokens.
func Tokenize(text string) []string {
	parts := tokenSplit.Split(strings.ToLower(text), -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MasterLoader supplies the full master code list. It is invoked at most
// once per index lifetime.
type MasterLoader interface {
	LoadAll(ctx context.Context) ([]model.MasterEntry, error)
}

// LoaderFunc adapts a plain function into a MasterLoader.
type LoaderFunc func(ctx context.Context) ([]model.MasterEntry, error)

func (f LoaderFunc) LoadAll(ctx context.Context) ([]model.MasterEntry, error) { return f(ctx) }

type buildState int

const (
	stateUnbuilt buildState = iota
	stateBuilding
	stateReady
)

type indexEntry struct {
	entry  model.MasterEntry
	tokens map[string]struct{}
}

// Index is a build-once token index. Construct it at startup and share it;
// after the first successful Initialize the entries are immutable and safe
// for unlimited concurrent reads.
type Index struct {
	loader MasterLoader
	log    zerolog.Logger

	mu      sync.Mutex
	state   buildState
	done    chan struct{} // closed when the in-flight build finishes
	lastErr error
	entries []indexEntry
}

// New creates an unbuilt index over the given loader.
func New(loader MasterLoader, log zerolog.Logger) *Index {
	return &Index{loader: loader, log: log}
}

// Initialize builds the index on first call. Concurrent callers wait on
// the same in-flight build instead of issuing duplicate loads. A failed
// build leaves the index unbuilt so a later call can retry.
func (ix *Index) Initialize(ctx context.Context) error {
	ix.mu.Lock()
	switch ix.state {
	case stateReady:
		ix.mu.Unlock()
		return nil
	case stateBuilding:
		done := ix.done
		ix.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		ix.mu.Lock()
		err := ix.lastErr
		ix.mu.Unlock()
		return err
	}

	ix.state = stateBuilding
	ix.done = make(chan struct{})
	done := ix.done
	ix.mu.Unlock()

	entries, err := ix.loader.LoadAll(ctx)

	ix.mu.Lock()
	if err != nil {
		ix.state = stateUnbuilt
		ix.lastErr = fmt.Errorf("load master code list: %w", err)
	} else {
		ix.entries = buildEntries(entries)
		ix.state = stateReady
		ix.lastErr = nil
		ix.log.Info().Int("entries", len(ix.entries)).Msg("lexical index built")
	}
	err = ix.lastErr
	close(done)
	ix.mu.Unlock()
	return err
}

// Reset discards the built index so the next Initialize reloads. Intended
// for tests and explicit cache invalidation only.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.state == stateBuilding {
		return
	}
	ix.state = stateUnbuilt
	ix.entries = nil
	ix.lastErr = nil
}

// Ready reports whether the index has been built.
func (ix *Index) Ready() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.state == stateReady
}

// Search tokenizes the query and scores every indexed entry: an exact
// token hit contributes 1.0, a prefix hit (query token at least 3 chars)
// 0.5; the final score is the hit total divided by the query token count.
// Results are ordered by descending score; ties keep master-list order.
// An empty query or an unbuilt index yields an empty result, never an error.
func (ix *Index) Search(query string, maxResults int) []model.MatchCandidate {
	ix.mu.Lock()
	ready := ix.state == stateReady
	entries := ix.entries
	ix.mu.Unlock()

	if !ready {
		return nil
	}
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var results []model.MatchCandidate

	for _, e := range entries {
		var count float64
		exact, pre := 0, 0
		for _, qt := range queryTokens {
			if _, ok := e.tokens[qt]; ok {
				count += exactTokenWeight
				exact++
				continue
			}
			if len(qt) >= prefixMinLen && hasPrefixToken(e.tokens, qt) {
				count += prefixTokenWeight
				pre++
			}
		}
		if count == 0 {
			continue
		}
		score := count / float64(len(queryTokens))
		results = append(results, model.MatchCandidate{
			Code:        e.entry.Code,
			Description: e.entry.LongDescription,
			Score:       score,
			MatchReason: fmt.Sprintf("master list: %d exact, %d prefix of %d query tokens", exact, pre, len(queryTokens)),
			Confidence:  Classify(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// Classify maps a 0-1 score onto the confidence tiers.
func Classify(score float64) model.Confidence {
	switch {
	case score >= scoreHigh:
		return model.ConfidenceHigh
	case score >= scoreMedium:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func hasPrefixToken(tokens map[string]struct{}, prefix string) bool {
	for t := range tokens {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

// buildEntries derives the token bag for each master entry from its label,
// description, section, category, and synonyms.
func buildEntries(entries []model.MasterEntry) []indexEntry {
	out := make([]indexEntry, 0, len(entries))
	for _, e := range entries {
		tokens := make(map[string]struct{})
		add := func(text string) {
			for _, t := range Tokenize(text) {
				tokens[t] = struct{}{}
			}
		}
		add(e.ShortLabel)
		add(e.LongDescription)
		add(e.Section)
		add(e.Category)
		for _, s := range e.Synonyms {
			add(s)
		}
		out = append(out, indexEntry{entry: e, tokens: tokens})
	}
	return out
}
