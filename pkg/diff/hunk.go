package diff

import "fmt"

// ChangeKind classifies a single rendered line inside a Hunk.
type ChangeKind int

const (
	ChangeNormal ChangeKind = iota
	ChangeAdd
	ChangeDelete
)

// Change is a single-line rendering record. OldLine/NewLine are 1-based;
// a Change that doesn't carry a given side leaves it at 0.
type Change struct {
	Kind    ChangeKind
	Content string
	OldLine int
	NewLine int
}

// Hunk is a contiguous changed region plus its surrounding context, ready
// for unified-diff rendering.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Changes  []Change
}

// Header renders the hunk's "@@ -oldStart,oldLines +newStart,newLines @@"
// line. The reference format always includes the ",N" count, even when N
// is 0 or 1 (spec §4.6).
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
}

// assembleHunks turns a list of Operations (indexed into normalized,
// possibly-filtered line space) into Hunks of Changes indexed into the
// original display lines, per spec §4.6.
//
// oldDisp/newDisp are the original (display) line slices. oldIndexMap and
// newIndexMap are nil when blank-line filtering was not applied; otherwise
// each maps a surviving-line index (as produced by FilterBlankLines, run
// independently on each side) back to its original index in oldDisp/newDisp.
func assembleHunks(ops []Operation, oldDisp, newDisp []string, oldIndexMap, newIndexMap []int, context int) []Hunk {
	changes := operationsToChanges(ops, oldDisp, newDisp, oldIndexMap, newIndexMap)
	return changesToHunks(changes, context)
}

// operationsToChanges walks operations in order, reindexing through the
// index maps when present, and maintaining running 1-based line counters.
//
// When blank-line filtering dropped lines before diffing, oldIndexMap and
// newIndexMap may skip original indexes between two consecutive surviving
// positions (the dropped lines were blank). Delete/Insert operations simply
// re-expand to their full original contiguous span, since every line in a
// deleted/inserted range — blank or not — was genuinely removed/added.
// Equal operations pair surviving anchors on both sides; any blank-line gap
// between one anchor and the next is filled back in as normal changes,
// since ignoreBlankLines means blank-line churn is never a reportable
// difference (spec §4.6 step 1). When the gap lengths differ between old
// and new, the shared portion advances both counters and the surplus on
// the longer side advances only that side's counter, per the Change
// doc comment's "leaves it at 0" allowance for an unset side.
func operationsToChanges(ops []Operation, oldDisp, newDisp []string, oldIndexMap, newIndexMap []int) []Change {
	var changes []Change
	oldLine, newLine := 0, 0

	origOld := func(k int) int {
		if oldIndexMap != nil {
			return oldIndexMap[k]
		}
		return k
	}
	origNew := func(k int) int {
		if newIndexMap != nil {
			return newIndexMap[k]
		}
		return k
	}

	emitNormal := func(content string) {
		oldLine++
		newLine++
		changes = append(changes, Change{Kind: ChangeNormal, Content: content, OldLine: oldLine, NewLine: newLine})
	}
	emitDelete := func(content string) {
		oldLine++
		changes = append(changes, Change{Kind: ChangeDelete, Content: content, OldLine: oldLine})
	}
	emitInsert := func(content string) {
		newLine++
		changes = append(changes, Change{Kind: ChangeAdd, Content: content, NewLine: newLine})
	}
	emitOldOnlyNormal := func(content string) {
		oldLine++
		changes = append(changes, Change{Kind: ChangeNormal, Content: content, OldLine: oldLine})
	}
	emitNewOnlyNormal := func(content string) {
		newLine++
		changes = append(changes, Change{Kind: ChangeNormal, Content: content, NewLine: newLine})
	}

	// fillTo emits, as normal changes, any filtered blank lines that lie
	// before original indexes oi/ni and were not yet emitted (blank lines
	// between two operations, or before the first one).
	fillTo := func(oi, ni int) {
		for oldLine < oi && newLine < ni {
			emitNormal(oldDisp[oldLine])
		}
		for oldLine < oi {
			emitOldOnlyNormal(oldDisp[oldLine])
		}
		for newLine < ni {
			emitNewOnlyNormal(newDisp[newLine])
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case Equal:
			fillTo(origOld(op.OldStart), origNew(op.NewStart))
			n := op.OldEnd - op.OldStart
			for k := 0; k < n; k++ {
				oi := origOld(op.OldStart + k)
				emitNormal(oldDisp[oi])

				if k+1 >= n {
					continue
				}
				nextOi := origOld(op.OldStart + k + 1)
				nextNi := origNew(op.NewStart + k + 1)
				ni := origNew(op.NewStart + k)
				oldGap := nextOi - oi - 1
				newGap := nextNi - ni - 1
				shared := min(oldGap, newGap)
				for g := 1; g <= shared; g++ {
					emitNormal(oldDisp[oi+g])
				}
				for g := shared + 1; g <= oldGap; g++ {
					emitOldOnlyNormal(oldDisp[oi+g])
				}
				for g := shared + 1; g <= newGap; g++ {
					emitNewOnlyNormal(newDisp[ni+g])
				}
			}
		case Delete:
			lo, hi := origOld(op.OldStart), origOld(op.OldEnd-1)+1
			fillTo(lo, newLine)
			for k := lo; k < hi; k++ {
				emitDelete(oldDisp[k])
			}
		case Insert:
			lo, hi := origNew(op.NewStart), origNew(op.NewEnd-1)+1
			fillTo(oldLine, lo)
			for k := lo; k < hi; k++ {
				emitInsert(newDisp[k])
			}
		}
	}
	return changes
}

// changesToHunks segments a flat Change stream into Hunks bounded by
// context lines of ChangeNormal on either side of each changed region,
// merging regions that are within 2*context normal lines of each other
// (spec §4.6 step 3).
func changesToHunks(changes []Change, context int) []Hunk {
	var hunks []Hunk
	n := len(changes)

	i := 0
	for i < n {
		if changes[i].Kind == ChangeNormal {
			i++
			continue
		}

		// Start a new hunk: include up to `context` preceding normal lines.
		start := i
		lead := 0
		for start > 0 && lead < context && changes[start-1].Kind == ChangeNormal {
			start--
			lead++
		}

		end := i
		for end < n {
			if changes[end].Kind != ChangeNormal {
				end++
				continue
			}
			// Count the run of normal lines starting at end.
			runEnd := end
			for runEnd < n && changes[runEnd].Kind == ChangeNormal {
				runEnd++
			}
			run := runEnd - end
			if runEnd >= n {
				// Trailing context only, then close.
				end += min(run, context)
				break
			}
			if run <= 2*context {
				// Bridge through to the next change; keep going.
				end = runEnd
				continue
			}
			// Gap too large: close with up to `context` trailing lines.
			end += min(run, context)
			break
		}

		hunks = append(hunks, buildHunk(changes[start:end]))
		i = end
	}
	return hunks
}

func buildHunk(cs []Change) Hunk {
	h := Hunk{Changes: append([]Change(nil), cs...)}
	for _, c := range cs {
		switch c.Kind {
		case ChangeNormal:
			// Usually a ChangeNormal advances both counters, but the
			// blank-line-gap filler (operationsToChanges) can emit a
			// one-sided normal change that carries only OldLine or only
			// NewLine; count exactly the sides it carries.
			if c.OldLine != 0 {
				h.OldLines++
			}
			if c.NewLine != 0 {
				h.NewLines++
			}
		case ChangeDelete:
			h.OldLines++
		case ChangeAdd:
			h.NewLines++
		}
	}
	h.OldStart = firstLineNumber(cs, true)
	h.NewStart = firstLineNumber(cs, false)
	return h
}

// firstLineNumber finds the first old (or new) line number referenced by
// cs. If the hunk carries no lines at all on that side (a pure insertion or
// pure deletion with no surrounding context, spec §4.6's edge case), that
// side's line count is necessarily 0 and oldStart/newStart is reported as 0.
func firstLineNumber(cs []Change, old bool) int {
	for _, c := range cs {
		if old && c.OldLine != 0 {
			return c.OldLine
		}
		if !old && c.NewLine != 0 {
			return c.NewLine
		}
	}
	return 0
}
