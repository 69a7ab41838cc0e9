package diff

// patienceDiff implements the Patience algorithm (spec §4.4): unique-line
// anchors chained by a longest increasing subsequence, with recursive
// between-anchor fallback. old and new are the full (sub-)segments to diff;
// the returned operations are absolute (0-based) into old/new, coalesced.
func patienceDiff(old, new []string) []Operation {
	ops := patienceSegment(old, new, 0, 0)
	return coalesce(ops)
}

// patienceSegment diffs old[0:]/new[0:] as a self-contained segment, then
// offsets every produced operation by (oldOff, newOff) so the caller can
// recurse into sub-segments and still get absolute indexes.
func patienceSegment(old, new []string, oldOff, newOff int) []Operation {
	// Strip common prefix.
	prefix := 0
	for prefix < len(old) && prefix < len(new) && old[prefix] == new[prefix] {
		prefix++
	}
	// Strip common suffix (on what remains after the prefix).
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

	ops = append(ops, patienceCore(midOld, midNew, midOldOff, midNewOff)...)

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

// patienceCore handles the "no common prefix/suffix left" core of one
// patience step: base cases, unique-anchor LIS, recursion between anchors,
// and the fallbackDiff fallback (LCS DP for small segments, Myers for
// larger ones).
func patienceCore(old, new []string, oldOff, newOff int) []Operation {
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

	matches := uniqueLineMatches(old, new)
	if len(matches) == 0 {
		return fallbackDiff(old, new, oldOff, newOff)
	}
	anchors := patienceLIS(matches)
	if len(anchors) == 0 {
		return fallbackDiff(old, new, oldOff, newOff)
	}

	var ops []Operation
	prevI, prevJ := 0, 0
	for _, a := range anchors {
		if a.i > prevI || a.j > prevJ {
			ops = append(ops, patienceSegment(
				old[prevI:a.i], new[prevJ:a.j],
				oldOff+prevI, newOff+prevJ,
			)...)
		}
		ops = append(ops, Operation{
			Kind:     Equal,
			OldStart: oldOff + a.i, OldEnd: oldOff + a.i + 1,
			NewStart: newOff + a.j, NewEnd: newOff + a.j + 1,
			Lines: []string{old[a.i]},
		})
		prevI, prevJ = a.i+1, a.j+1
	}
	if prevI < len(old) || prevJ < len(new) {
		ops = append(ops, patienceSegment(
			old[prevI:], new[prevJ:],
			oldOff+prevI, newOff+prevJ,
		)...)
	}
	return ops
}

func offsetOps(ops []Operation, oldOff, newOff int) []Operation {
	for i := range ops {
		ops[i].OldStart += oldOff
		ops[i].OldEnd += oldOff
		ops[i].NewStart += newOff
		ops[i].NewEnd += newOff
	}
	return ops
}
