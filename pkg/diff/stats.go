package diff

// DiffStats summarizes a diff result (spec §4.8 step 6, §8 scenario 1).
// Changes is a derived field, always Additions+Deletions.
type DiffStats struct {
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	Changes      int `json:"changes"`
	OldLineCount int `json:"oldLineCount"`
	NewLineCount int `json:"newLineCount"`
}

// computeStats derives additions/deletions from the hunk changes and
// oldLineCount/newLineCount from the full original display arrays (not just
// what's visible inside hunks), per spec §4.8 step 6.
func computeStats(hunks []Hunk, oldDisp, newDisp []string) DiffStats {
	stats := DiffStats{
		OldLineCount: len(oldDisp),
		NewLineCount: len(newDisp),
	}
	for _, h := range hunks {
		for _, c := range h.Changes {
			switch c.Kind {
			case ChangeAdd:
				stats.Additions++
			case ChangeDelete:
				stats.Deletions++
			}
		}
	}
	stats.Changes = stats.Additions + stats.Deletions
	return stats
}
