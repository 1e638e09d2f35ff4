// Package dedup finds likely duplicate counterparties by fuzzy name matching.
// Bank exports spell the same organization inconsistently (quoting, legal-form
// abbreviations, stray spaces), so exact-match reconciliation accumulates
// near-duplicates that need manual review.
package dedup

import (
	"strings"

	"avolkov/finaudit/internal/models"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the maximum normalized distance for two names to be
// reported as a candidate pair.
const DefaultThreshold = 0.25

// Candidate is a pair of counterparties whose names are suspiciously close.
type Candidate struct {
	A        models.Counterparty
	B        models.Counterparty
	Distance float64
}

// normalize strips the punctuation and casing noise that bank exports add
// around organization names before comparing them.
func normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	for _, r := range []string{"«", "»", "\"", "'", "„", "“", "”"} {
		s = strings.ReplaceAll(s, r, "")
	}
	return strings.Join(strings.Fields(s), " ")
}

// Similarity returns the normalized Levenshtein distance between two names:
// 0 for identical (after normalization), 1 for completely different.
func Similarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == nb {
		return 0
	}
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(na, nb)) / float64(longest)
}

// FindCandidates compares every counterparty pair and returns those within
// threshold. A non-positive threshold uses DefaultThreshold. Pairs with
// different non-empty tax IDs are never candidates: distinct INNs mean
// distinct organizations regardless of the name.
func FindCandidates(counterparties []models.Counterparty, threshold float64) []Candidate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var out []Candidate
	for i := 0; i < len(counterparties); i++ {
		for j := i + 1; j < len(counterparties); j++ {
			a, b := counterparties[i], counterparties[j]
			if a.TaxID != "" && b.TaxID != "" && a.TaxID != b.TaxID {
				continue
			}
			d := Similarity(a.Name, b.Name)
			if d <= threshold {
				out = append(out, Candidate{A: a, B: b, Distance: d})
			}
		}
	}
	return out
}
