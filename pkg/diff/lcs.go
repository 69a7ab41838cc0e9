package diff

import "sort"

// pair is a matched (oldIndex, newIndex) coordinate. It's used both for raw
// LCS backtrack results and for unique-line anchor chains.
type pair struct{ i, j int }

// computeLCS returns the longest common subsequence of a and b as an
// increasing sequence of index pairs, via the textbook O(|a|*|b|) DP table
// plus backtrack. The backtrack moves up (consumes from a) only when that
// is strictly better; on ties it moves left (consumes from b), per spec §4.2.
func computeLCS(a, b []string) []pair {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}

	// dp[i][j] = LCS length of a[i:], b[j:].
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var out []pair
	i, j := 0, 0
	for i < n && j < m {
		if a[i] == b[j] {
			out = append(out, pair{i, j})
			i++
			j++
			continue
		}
		// Move up (increasing i, i.e. consuming from a) only when that is
		// strictly better; on a tie, consume from b instead.
		if dp[i+1][j] > dp[i][j+1] {
			i++
		} else {
			j++
		}
	}
	return out
}

// lcsSmallSegment caps the segment size (old and new both within this many
// lines) for which lcsToOperations is used as a fallback instead of Myers:
// the O(|a|*|b|) DP table is cheap at this size.
const lcsSmallSegment = 64

// fallbackDiff is the Myers-or-LCS fallback used once patience/histogram run
// out of anchors (or unique matches) on a remaining segment. For small
// segments it runs the classic LCS DP (computeLCS); for larger ones the
// O(|a|*|b|) table gets too expensive and it defers to Myers.
func fallbackDiff(old, new []string, oldOff, newOff int) []Operation {
	if len(old) <= lcsSmallSegment && len(new) <= lcsSmallSegment {
		return lcsToOperations(old, new, oldOff, newOff)
	}
	return offsetOps(myersDiff(old, new), oldOff, newOff)
}

// lcsToOperations turns computeLCS's matched-pair list into a coalesced
// Operation list, offset by (oldOff, newOff) for use inside a recursive
// segment. It follows the same Delete/Insert/Equal construction conventions
// as myersBacktrack: Delete spans collapse NewStart/NewEnd to a point, Insert
// spans collapse OldStart/OldEnd to a point.
func lcsToOperations(old, new []string, oldOff, newOff int) []Operation {
	matched := computeLCS(old, new)

	var ops []Operation
	i, j := 0, 0
	for _, p := range matched {
		if p.i > i {
			ops = append(ops, Operation{
				Kind:     Delete,
				OldStart: oldOff + i, OldEnd: oldOff + p.i,
				NewStart: newOff + j, NewEnd: newOff + j,
				Lines: append([]string(nil), old[i:p.i]...),
			})
		}
		if p.j > j {
			ops = append(ops, Operation{
				Kind:     Insert,
				OldStart: oldOff + p.i, OldEnd: oldOff + p.i,
				NewStart: newOff + j, NewEnd: newOff + p.j,
				Lines: append([]string(nil), new[j:p.j]...),
			})
		}
		ops = append(ops, Operation{
			Kind:     Equal,
			OldStart: oldOff + p.i, OldEnd: oldOff + p.i + 1,
			NewStart: newOff + p.j, NewEnd: newOff + p.j + 1,
			Lines: []string{old[p.i]},
		})
		i, j = p.i+1, p.j+1
	}
	if i < len(old) {
		ops = append(ops, Operation{
			Kind:     Delete,
			OldStart: oldOff + i, OldEnd: oldOff + len(old),
			NewStart: newOff + j, NewEnd: newOff + j,
			Lines: append([]string(nil), old[i:]...),
		})
	}
	if j < len(new) {
		ops = append(ops, Operation{
			Kind:     Insert,
			OldStart: oldOff + len(old), OldEnd: oldOff + len(old),
			NewStart: newOff + j, NewEnd: newOff + len(new),
			Lines: append([]string(nil), new[j:]...),
		})
	}
	return coalesce(ops)
}

// uniqueLineMatches returns, for every line value that occurs exactly once
// in aLines and exactly once in bLines, the pair of indexes at which it
// occurs. The result is ordered by increasing aIndex.
func uniqueLineMatches(aLines, bLines []string) []pair {
	aCount := occurrenceCounts(aLines)
	bCount := occurrenceCounts(bLines)

	bIndex := make(map[string]int, len(bLines))
	for j, l := range bLines {
		if bCount[l] == 1 {
			bIndex[l] = j
		}
	}

	var out []pair
	for i, l := range aLines {
		if aCount[l] != 1 {
			continue
		}
		j, ok := bIndex[l]
		if !ok {
			continue
		}
		out = append(out, pair{i, j})
	}
	return out
}

// patienceLIS runs patience-sort LIS over matches (assumed sorted by
// ascending i, the aIndex) keyed on j (the bIndex), and returns the longest
// strictly-increasing-in-both-coordinates subsequence, in ascending order.
func patienceLIS(matches []pair) []pair {
	if len(matches) == 0 {
		return nil
	}

	// pileTop[p] = index into matches of the current top of pile p.
	// back[k] = index into matches of the element placed immediately below
	// matches[k] in its pile (i.e. the predecessor in the LIS chain), or -1.
	var pileTop []int
	back := make([]int, len(matches))

	for k, m := range matches {
		// Find the first pile whose top's j >= m.j.
		p := sort.Search(len(pileTop), func(p int) bool {
			return matches[pileTop[p]].j >= m.j
		})
		if p > 0 {
			back[k] = pileTop[p-1]
		} else {
			back[k] = -1
		}
		if p == len(pileTop) {
			pileTop = append(pileTop, k)
		} else {
			pileTop[p] = k
		}
	}

	// Reconstruct by following back-pointers from the last pile's top.
	length := len(pileTop)
	chain := make([]pair, length)
	k := pileTop[length-1]
	for idx := length - 1; idx >= 0; idx-- {
		chain[idx] = matches[k]
		k = back[k]
	}
	return chain
}

// occurrenceCounts counts how many times each distinct line appears.
func occurrenceCounts(lines []string) map[string]int {
	counts := make(map[string]int, len(lines))
	for _, l := range lines {
		counts[l]++
	}
	return counts
}

// lowOccurrenceLines returns lines present in both a and b whose combined
// occurrence count is <= max, sorted ascending by combined count (stable on
// ties, i.e. ties keep their first-encountered relative order).
func lowOccurrenceLines(a, b []string, max int) []string {
	aCount := occurrenceCounts(a)
	bCount := occurrenceCounts(b)

	type candidate struct {
		line   string
		weight int
	}
	seen := make(map[string]bool)
	var candidates []candidate
	for _, l := range a {
		if seen[l] {
			continue
		}
		seen[l] = true
		bc, ok := bCount[l]
		if !ok {
			continue
		}
		weight := aCount[l] + bc
		if weight <= max {
			candidates = append(candidates, candidate{l, weight})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].weight < candidates[j].weight
	})

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.line
	}
	return out
}
