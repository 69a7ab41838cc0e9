package diff

// maxHistogramDepth caps the histogram recursion depth; beyond it we give
// up on finding further low-occurrence anchors and hand the remainder to
// fallbackDiff (LCS DP for small segments, Myers for larger ones) (spec
// §4.5, §5, §8 property 7).
const maxHistogramDepth = 64

// maxAnchorOccurrence is the "max=64" combined-occurrence ceiling for a
// candidate anchor line (spec §4.2, §4.5).
const maxAnchorOccurrence = 64

// histogramDiff implements the git-style Histogram algorithm (spec §4.5).
func histogramDiff(old, new []string) []Operation {
	ops := histogramSegment(old, new, 0, 0, 0)
	return coalesce(ops)
}

func histogramSegment(old, new []string, oldOff, newOff, depth int) []Operation {
	if len(old) == 0 && len(new) == 0 {
		return nil
	}
	if len(old) == 0 {
		return []Operation{{
			Kind: Insert, OldStart: oldOff, OldEnd: oldOff,
			NewStart: newOff, NewEnd: newOff + len(new),
			Lines: append([]string(nil), new...),
		}}
	}
	if len(new) == 0 {
		return []Operation{{
			Kind: Delete, OldStart: oldOff, OldEnd: oldOff + len(old),
			NewStart: newOff, NewEnd: newOff,
			Lines: append([]string(nil), old...),
		}}
	}
	if depth > maxHistogramDepth {
		return fallbackDiff(old, new, oldOff, newOff)
	}

	// Strip common prefix/suffix.
	prefix := 0
	for prefix < len(old) && prefix < len(new) && old[prefix] == new[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(new)-prefix &&
		old[len(old)-1-suffix] == new[len(new)-1-suffix] {
		suffix++
	}

	var ops []Operation
	if prefix > 0 {
		ops = append(ops, Operation{
			Kind: Equal,
			OldStart: oldOff, OldEnd: oldOff + prefix,
			NewStart: newOff, NewEnd: newOff + prefix,
			Lines: append([]string(nil), old[:prefix]...),
		})
	}

	midOld := old[prefix : len(old)-suffix]
	midNew := new[prefix : len(new)-suffix]
	midOldOff := oldOff + prefix
	midNewOff := newOff + prefix

	ops = append(ops, histogramCore(midOld, midNew, midOldOff, midNewOff, depth+1)...)

	if suffix > 0 {
		ops = append(ops, Operation{
			Kind: Equal,
			OldStart: oldOff + len(old) - suffix, OldEnd: oldOff + len(old),
			NewStart: newOff + len(new) - suffix, NewEnd: newOff + len(new),
			Lines: append([]string(nil), old[len(old)-suffix:]...),
		})
	}
	return ops
}

func histogramCore(old, new []string, oldOff, newOff, depth int) []Operation {
	if len(old) == 0 && len(new) == 0 {
		return nil
	}
	if len(old) == 0 {
		return []Operation{{
			Kind: Insert, OldStart: oldOff, OldEnd: oldOff,
			NewStart: newOff, NewEnd: newOff + len(new),
			Lines: append([]string(nil), new...),
		}}
	}
	if len(new) == 0 {
		return []Operation{{
			Kind: Delete, OldStart: oldOff, OldEnd: oldOff + len(old),
			NewStart: newOff, NewEnd: newOff,
			Lines: append([]string(nil), old...),
		}}
	}

	anchorLines := lowOccurrenceLines(old, new, maxAnchorOccurrence)
	if len(anchorLines) == 0 {
		return fallbackDiff(old, new, oldOff, newOff)
	}
	anchor := anchorLines[0]

	aOld := indexOf(old, anchor)
	aNew := indexOf(new, anchor)
	if aOld < 0 || aNew < 0 {
		// Shouldn't happen since lowOccurrenceLines only returns lines
		// present in both, but fall back defensively.
		return fallbackDiff(old, new, oldOff, newOff)
	}

	var ops []Operation
	ops = append(ops, histogramSegment(old[:aOld], new[:aNew], oldOff, newOff, depth+1)...)
	ops = append(ops, Operation{
		Kind:     Equal,
		OldStart: oldOff + aOld, OldEnd: oldOff + aOld + 1,
		NewStart: newOff + aNew, NewEnd: newOff + aNew + 1,
		Lines: []string{anchor},
	})
	ops = append(ops, histogramSegment(old[aOld+1:], new[aNew+1:], oldOff+aOld+1, newOff+aNew+1, depth+1)...)
	return ops
}

func indexOf(lines []string, s string) int {
	for i, l := range lines {
		if l == s {
			return i
		}
	}
	return -1
}
