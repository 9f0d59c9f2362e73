// Package textmatch scores approximate string similarity for channel-to-guide
// reconciliation.
//
// The score is the longest-common-subsequence ratio
//
//	score(a, b) = 2*LCS(a, b) / (len(a) + len(b))
//
// computed over runes, on a 0-1 scale where 1.0 is an exact match. The score
// is deterministic and monotonic: a longer shared subsequence never lowers it.
package textmatch

// Score returns the LCS ratio of a and b. Two empty strings score 1.0.
func Score(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1.0
	}
	lcs := lcsLength(ra, rb)
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// lcsLength computes the longest-common-subsequence length with a rolling
// single-row table (O(min) memory).
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0 // row[j-1] from the previous iteration of i
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prev + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prev = cur
		}
	}
	return row[len(b)]
}

// BestMatch returns the pool candidate with the highest score against name,
// provided it clears threshold. Ties break to the first occurrence in pool
// order. The boolean is false when no candidate qualifies.
func BestMatch(name string, pool []string, threshold float64) (string, float64, bool) {
	best := ""
	bestScore := 0.0
	found := false
	for _, candidate := range pool {
		s := Score(name, candidate)
		if s < threshold {
			continue
		}
		// Strictly-greater keeps the first pool occurrence on ties.
		if !found || s > bestScore {
			best, bestScore, found = candidate, s, true
		}
	}
	return best, bestScore, found
}
