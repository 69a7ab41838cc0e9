package diff

// myersDiff computes the shortest edit script between old and new using the
// classic Myers O((N+M)*D) algorithm (spec §4.3), returning a coalesced
// slice of Operations with indexes relative to the start of old/new (i.e.
// the caller is responsible for offsetting into a larger sequence, which
// fallbackDiff in lcs.go does when patience or histogram fall back to Myers
// on a sub-segment).
func myersDiff(old, new []string) []Operation {
	n, m := len(old), len(new)
	if n == 0 && m == 0 {
		return nil
	}

	path := myersShortestEdit(old, new)
	return myersBacktrack(old, new, path)
}

// snapshot records the V array (farthest-reaching x per diagonal) as it
// stood when round D began, i.e. the result of round D-1, which is where the
// backtrack looks up the predecessor of a round-D step; the last snapshot
// also carries the final round's own updates.
type snapshot struct {
	d int
	v map[int]int
}

func myersShortestEdit(old, new []string) []snapshot {
	n, m := len(old), len(new)
	max := n + m
	if max == 0 {
		return nil
	}

	v := map[int]int{1: 0}
	var trace []snapshot

	for d := 0; d <= max; d++ {
		cp := make(map[int]int, len(v))
		for k, x := range v {
			cp[k] = x
		}
		trace = append(trace, snapshot{d: d, v: cp})

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[k-1] < v[k+1]) {
				x = v[k+1]
			} else {
				x = v[k-1] + 1
			}
			y := x - k

			for x < n && y < m && old[x] == new[y] {
				x++
				y++
			}
			v[k] = x

			if x >= n && y >= m {
				// Record the final round's V before returning.
				final := make(map[int]int, len(v))
				for kk, xx := range v {
					final[kk] = xx
				}
				trace[len(trace)-1] = snapshot{d: d, v: final}
				return trace
			}
		}
	}
	return trace
}

// myersBacktrack walks the recorded rounds from (n,m) back to (0,0),
// producing operations in forward order. Within a modified region,
// deletions are emitted before the matching insertions, per spec §4.3.
func myersBacktrack(old, new []string, trace []snapshot) []Operation {
	n, m := len(old), len(new)
	x, y := n, m

	type step struct {
		kind       Kind
		x1, y1     int // before the step
		x2, y2     int // after the step
	}
	var steps []step

	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d].v
		k := x - y

		var prevK int
		if k == -d || (k != d && v[k-1] < v[k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[prevK]
		prevY := prevX - prevK

		// Walk the snake (diagonal matches) backward to (prevX, prevY)
		// conceptually ending at the post-edit point.
		for x > prevX && y > prevY && x > 0 && y > 0 && old[x-1] == new[y-1] {
			steps = append(steps, step{Equal, x - 1, y - 1, x, y})
			x--
			y--
		}

		if d > 0 {
			if x == prevX {
				// Insertion: new[prevY] consumed, x unchanged.
				steps = append(steps, step{Insert, x, prevY, x, prevY + 1})
			} else {
				// Deletion: old[prevX] consumed, y unchanged.
				steps = append(steps, step{Delete, prevX, y, prevX + 1, y})
			}
			x, y = prevX, prevY
		}
	}

	// steps is in reverse order; reverse it, then convert to Operations.
	ops := make([]Operation, len(steps))
	for i, s := range steps {
		ops[len(steps)-1-i] = Operation{
			Kind:     s.kind,
			OldStart: s.x1,
			OldEnd:   s.x2,
			NewStart: s.y1,
			NewEnd:   s.y2,
			Lines:    lineSliceFor(s.kind, old, new, s.x1, s.x2, s.y1, s.y2),
		}
	}
	return coalesce(ops)
}

func lineSliceFor(k Kind, old, new []string, x1, x2, y1, y2 int) []string {
	switch k {
	case Delete:
		return append([]string(nil), old[x1:x2]...)
	case Insert:
		return append([]string(nil), new[y1:y2]...)
	default:
		return append([]string(nil), old[x1:x2]...)
	}
}
