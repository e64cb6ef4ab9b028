// Package fuzzy implements edit-distance matching used to snap OCR output to
// known merchant names.
package fuzzy

import "sort"

// Distance returns the Levenshtein distance between a and b, counted in
// runes. Comparison is exact; callers normalize case themselves.
//
// A single DP row sized to the shorter input is kept, so memory is
// O(min(len(a), len(b))).
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}

	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			above := row[j]
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			row[j] = min(
				above+1,    // deletion
				row[j-1]+1, // insertion
				diag+cost,  // substitution
			)
			diag = above
		}
	}
	return row[len(rb)]
}

// Match is the result of a Nearest lookup.
type Match struct {
	Candidate string
	Distance  int
}

// Nearest returns the candidate with the smallest distance to query.
// Candidates are considered in lexicographic order, so ties resolve to the
// lexicographically smallest candidate regardless of input order.
// ok is false when candidates is empty.
func Nearest(query string, candidates []string) (m Match, ok bool) {
	if len(candidates) == 0 {
		return Match{}, false
	}

	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	m = Match{Candidate: sorted[0], Distance: Distance(query, sorted[0])}
	for _, c := range sorted[1:] {
		if m.Distance == 0 {
			break
		}
		if d := Distance(query, c); d < m.Distance {
			m = Match{Candidate: c, Distance: d}
		}
	}
	return m, true
}

// Within returns the nearest candidate only if its distance is strictly less
// than threshold.
func Within(query string, candidates []string, threshold int) (Match, bool) {
	m, ok := Nearest(query, candidates)
	if !ok || m.Distance >= threshold {
		return Match{}, false
	}
	return m, true
}
