// Package answer implements the answer-verification engine: it decides
// whether a free-text guess refers to the same entity as the round's
// target, despite aliasing, punctuation, and typos. Verification is a pure
// function of the guess, the candidate pool, and the alias table; all
// round state (already-named sets, streaks) belongs to the caller.
package answer

import (
	"sort"

	"github.com/geoclash/geoclash/internal/geoclash"
	"github.com/geoclash/geoclash/internal/geodata"
)

const (
	// Normalized guesses at or below this length never receive fuzzy
	// correction; short strings produce too many false positives.
	DefaultShortGuard = 5
	// Maximum Levenshtein distance accepted by the fuzzy stage.
	DefaultMaxEditDistance = 2
)

// Verifier checks guesses against candidate pools using the alias table.
type Verifier struct {
	aliases         *geodata.AliasTable
	shortGuard      int
	maxEditDistance int
}

// NewVerifier returns a verifier with the default thresholds.
func NewVerifier(aliases *geodata.AliasTable) *Verifier {
	return &Verifier{
		aliases:         aliases,
		shortGuard:      DefaultShortGuard,
		maxEditDistance: DefaultMaxEditDistance,
	}
}

// Verify classifies a raw guess against the target within a candidate pool.
// The target is always part of the effective pool, so callers running a
// binary correct/incorrect check can pass an empty pool.
//
// Stages, stopping at the first applicable rule: normalize; exact/alias
// match against all accepted strings of every pool entity (a string
// resolving to more than one canonical is reported as Ambiguous, never
// auto-picked); short-input guard; Levenshtein fuzzy match.
func (v *Verifier) Verify(raw string, target geoclash.Entity, pool []geoclash.Entity) geoclash.Verdict {
	full := pool
	if !poolContains(pool, target.Name) {
		full = append(append(make([]geoclash.Entity, 0, len(pool)+1), pool...), target)
	}
	return v.verify(raw, full)
}

// VerifyOpen classifies a guess for the open-vocabulary mode, where any
// pool entity is a valid answer but each may be named only once. A correct
// guess whose canonical is already in named yields AlreadyNamed.
func (v *Verifier) VerifyOpen(raw string, pool []geoclash.Entity, named map[string]bool) geoclash.Verdict {
	verdict := v.verify(raw, pool)
	if verdict.Correct() && named[verdict.Canonical] {
		return geoclash.Verdict{Kind: geoclash.VerdictAlreadyNamed, Canonical: verdict.Canonical}
	}
	return verdict
}

func (v *Verifier) verify(raw string, pool []geoclash.Entity) geoclash.Verdict {
	norm := geodata.Normalize(raw)
	if norm == "" {
		return geoclash.Verdict{Kind: geoclash.VerdictInvalid}
	}

	// Candidate set: every accepted string of every pool entity, mapped to
	// the canonicals it resolves to.
	candidates := make(map[string][]string)
	for _, e := range pool {
		for _, s := range v.aliases.Strings(e.Name) {
			key := geodata.Normalize(s)
			if !containsString(candidates[key], e.Name) {
				candidates[key] = append(candidates[key], e.Name)
			}
		}
	}

	if canons, ok := candidates[norm]; ok {
		if len(canons) > 1 {
			sorted := append([]string(nil), canons...)
			sort.Strings(sorted)
			return geoclash.Verdict{Kind: geoclash.VerdictAmbiguous, Candidates: sorted}
		}
		if geodata.Normalize(canons[0]) == norm {
			return geoclash.Verdict{Kind: geoclash.VerdictExact, Canonical: canons[0]}
		}
		return geoclash.Verdict{Kind: geoclash.VerdictAlias, Canonical: canons[0]}
	}

	if len([]rune(norm)) <= v.shortGuard {
		return geoclash.Verdict{Kind: geoclash.VerdictInvalid}
	}

	best := v.maxEditDistance + 1
	var bestCanons []string
	for key, canons := range candidates {
		d := levenshtein(norm, key)
		if d > v.maxEditDistance || d > best {
			continue
		}
		if d < best {
			best = d
			bestCanons = bestCanons[:0]
		}
		for _, c := range canons {
			if !containsString(bestCanons, c) {
				bestCanons = append(bestCanons, c)
			}
		}
	}

	switch len(bestCanons) {
	case 0:
		return geoclash.Verdict{Kind: geoclash.VerdictInvalid}
	case 1:
		return geoclash.Verdict{Kind: geoclash.VerdictFuzzy, Canonical: bestCanons[0], EditDistance: best}
	default:
		// Several canonicals tie at the minimum distance. Picking one would
		// make round outcomes non-reproducible, so report the ambiguity.
		sort.Strings(bestCanons)
		return geoclash.Verdict{Kind: geoclash.VerdictAmbiguous, Candidates: bestCanons}
	}
}

func poolContains(pool []geoclash.Entity, name string) bool {
	for _, e := range pool {
		if e.Name == name {
			return true
		}
	}
	return false
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
