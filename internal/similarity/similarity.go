// Package similarity scores how alike two address strings are and turns that
// score into a pseudo-distance in kilometres.
package similarity

// EditDistance returns the Levenshtein distance between a and b, counting
// insertions, deletions and substitutions at unit cost. Runes, not bytes, are
// compared.
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two rows of the (len(b)+1) x (len(a)+1) table are enough.
	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}

// Similarity returns (longest - EditDistance) / longest, a value in [0,1].
// Two empty strings are identical. Comparison is case-sensitive; callers
// lower-case both inputs when they want otherwise.
func Similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1.0
	}
	return float64(longest-EditDistance(a, b)) / float64(longest)
}
