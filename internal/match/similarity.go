package match

// Ratio computes the Ratcliff–Obershelp similarity between a and b:
// 2M / (len(a) + len(b)), where M is the total length of a greedily-matched,
// non-overlapping sequence of longest common substrings found recursively
// (match the longest common substring, then recurse on the pieces to its left
// and right).
//
// Every similarity measurement in the engine uses this function; its exact
// recursive definition is part of the scoring contract because a generic
// edit-distance ratio produces different numbers. Either argument being empty
// yields 0, which also guards the denominator.
func Ratio(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	m := matchTotal(ra, rb)
	return 2 * float64(m) / float64(len(ra)+len(rb))
}

// matchTotal returns the total length of the recursively-matched longest
// common substrings of a and b.
func matchTotal(a, b []rune) int {
	i, j, n := longestCommonSubstring(a, b)
	if n == 0 {
		return 0
	}
	return n + matchTotal(a[:i], b[:j]) + matchTotal(a[i+n:], b[j+n:])
}

// longestCommonSubstring finds the longest substring common to a and b and
// returns its start offsets and length. Among equally long matches the one
// starting earliest in a wins, then earliest in b, so the recursion splits
// deterministically.
func longestCommonSubstring(a, b []rune) (ai, bi, n int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// prev[j] is the length of the common suffix of a[:i] and b[:j].
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > n {
					n = curr[j]
					ai = i - n
					bi = j - n
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ai, bi, n
}
