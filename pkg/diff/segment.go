package diff

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
)

// SegmentKind classifies a single span returned by Segment.
type SegmentKind int

const (
	SegmentUnchanged SegmentKind = iota
	SegmentDeleted
	SegmentAdded
)

// Segment is one intra-line span: a run of unchanged, deleted, or added
// text between a (delete, add) line pair.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Segment implements the C7 intra-line segmenter (spec §4.7): given a line
// that was deleted and the line that replaced it, split both into tokens
// (words or individual runes, per granularity) and emit the common prefix
// run, the differing middle on each side, and the common suffix run. There
// is deliberately no inner LCS pass here — only prefix/suffix stripping, to
// keep rendering cheap and stable (spec §4.7).
func Segment(oldLine, newLine string, granularity Granularity) []Segment {
	oldTokens := tokenize(oldLine, granularity)
	newTokens := tokenize(newLine, granularity)

	prefix := 0
	for prefix < len(oldTokens) && prefix < len(newTokens) && oldTokens[prefix] == newTokens[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(oldTokens)-prefix && suffix < len(newTokens)-prefix &&
		oldTokens[len(oldTokens)-1-suffix] == newTokens[len(newTokens)-1-suffix] {
		suffix++
	}

	var segs []Segment
	if prefix > 0 {
		segs = append(segs, Segment{SegmentUnchanged, strings.Join(oldTokens[:prefix], "")})
	}
	midOld := strings.Join(oldTokens[prefix:len(oldTokens)-suffix], "")
	midNew := strings.Join(newTokens[prefix:len(newTokens)-suffix], "")
	if midOld != "" {
		segs = append(segs, Segment{SegmentDeleted, midOld})
	}
	if midNew != "" {
		segs = append(segs, Segment{SegmentAdded, midNew})
	}
	if suffix > 0 {
		segs = append(segs, Segment{SegmentUnchanged, strings.Join(oldTokens[len(oldTokens)-suffix:], "")})
	}
	return segs
}

// tokenize splits a line into word tokens (including whitespace runs as
// their own tokens, per spec §4.7) or individual runes, depending on
// granularity.
func tokenize(line string, granularity Granularity) []string {
	if granularity == GranularityChar {
		return strings.Split(line, "")
	}
	var tokens []string
	seg := words.FromString(line)
	for seg.Next() {
		tokens = append(tokens, seg.Value())
	}
	return tokens
}
