package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b", "c"}, SplitLines("a\nb\nc"))
	assert.Equal(t, []string{"a", "b", ""}, SplitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\r\nb"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\rb"))
}

func TestGetLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, GetLines("a\nb\nc"))
	assert.Equal(t, []string{"a", "b"}, GetLines("a\nb\n"))
	assert.Nil(t, GetLines(""))
}

func TestParseWhitespace(t *testing.T) {
	assert.Equal(t, WhitespaceAll, ParseWhitespace("all"))
	assert.Equal(t, WhitespaceAll, ParseWhitespace("ignore"))
	assert.Equal(t, WhitespaceAll, ParseWhitespace("true"))
	assert.Equal(t, WhitespaceLeading, ParseWhitespace("leading"))
	assert.Equal(t, WhitespaceTrailing, ParseWhitespace("trailing"))
	assert.Equal(t, WhitespaceCollapse, ParseWhitespace("collapse"))
	assert.Equal(t, WhitespaceOff, ParseWhitespace("off"))
	assert.Equal(t, WhitespaceOff, ParseWhitespace("bogus"))
}

func TestNormalizeLine(t *testing.T) {
	assert.Equal(t, "ab", NormalizeLine("  a b  ", WhitespaceAll, false, false))
	assert.Equal(t, "a b", NormalizeLine("a b  ", WhitespaceTrailing, false, false))
	assert.Equal(t, "a b", NormalizeLine("  a b", WhitespaceLeading, false, false))
	assert.Equal(t, "a b c", NormalizeLine("a   b    c", WhitespaceCollapse, false, false))
	assert.Equal(t, "a b", NormalizeLine("  a b  ", WhitespaceOff, true, false))
	assert.Equal(t, "hello", NormalizeLine("HELLO", WhitespaceOff, false, true))
}

func TestFilterBlankLines(t *testing.T) {
	lines := []string{"a", "", "b", "   ", "c"}
	filtered, indexMap := FilterBlankLines(lines)
	assert.Equal(t, []string{"a", "b", "c"}, filtered)
	assert.Equal(t, []int{0, 2, 4}, indexMap)
}
