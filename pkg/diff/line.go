package diff

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Whitespace is the enumerated ignoreWhitespace rule (spec §4.1). The zero
// value is WhitespaceOff, identity behavior.
type Whitespace int

const (
	WhitespaceOff Whitespace = iota
	WhitespaceAll
	WhitespaceLeading
	WhitespaceTrailing
	WhitespaceCollapse
)

// ParseWhitespace maps the option's string spelling onto a [Whitespace]
// rule. Duplicate spellings collapse onto the same rule, per spec §4.1.
// Unknown strings are tolerated, mapping to WhitespaceOff (spec §7).
func ParseWhitespace(s string) Whitespace {
	switch s {
	case "all", "ignore", "true":
		return WhitespaceAll
	case "leading":
		return WhitespaceLeading
	case "trailing":
		return WhitespaceTrailing
	case "collapse":
		return WhitespaceCollapse
	case "off", "":
		return WhitespaceOff
	default:
		return WhitespaceOff
	}
}

var foldCaser = cases.Fold()

// SplitLines splits text on \r\n, \r, or \n, returning each line without its
// terminator. Empty input yields an empty (nil) slice. If text ends with a
// terminator, the result includes one final empty-string line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	lines = append(lines, text[start:])
	return lines
}

// GetLines is the display form used throughout the algorithm layer: like
// SplitLines, but with exactly one trailing empty line removed if the input
// was non-empty and ended in a terminator. This is the canonical line form
// every algorithm in this package operates on (see DESIGN.md open-question
// #2).
func GetLines(text string) []string {
	lines := SplitLines(text)
	if len(lines) == 0 {
		return lines
	}
	if lines[len(lines)-1] == "" {
		return lines[:len(lines)-1]
	}
	return lines
}

// NormalizeLine applies, in order, the whitespace rule, trim-if-no-
// whitespace-rule, and case fold, per spec §4.1.
func NormalizeLine(line string, ws Whitespace, trim, ignoreCase bool) string {
	switch ws {
	case WhitespaceAll:
		line = stripAllWhitespace(line)
	case WhitespaceLeading:
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
	case WhitespaceTrailing:
		line = strings.TrimRightFunc(line, unicode.IsSpace)
	case WhitespaceCollapse:
		line = collapseWhitespace(line)
	case WhitespaceOff:
		if trim {
			line = strings.TrimSpace(line)
		}
	}
	if ignoreCase {
		line = foldCaser.String(line)
	}
	return line
}

func stripAllWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeLines normalizes every line in lines, per NormalizeLine.
func NormalizeLines(lines []string, ws Whitespace, trim, ignoreCase bool) []string {
	if len(lines) == 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = NormalizeLine(l, ws, trim, ignoreCase)
	}
	return out
}

// FilterBlankLines removes lines whose trimmed form is empty, returning the
// surviving lines along with indexMap, where indexMap[i] is the original
// index (into normLines) of the i-th surviving line.
func FilterBlankLines(normLines []string) (filtered []string, indexMap []int) {
	filtered = make([]string, 0, len(normLines))
	indexMap = make([]int, 0, len(normLines))
	for i, l := range normLines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		filtered = append(filtered, l)
		indexMap = append(indexMap, i)
	}
	return filtered, indexMap
}
