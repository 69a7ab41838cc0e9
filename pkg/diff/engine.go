package diff

import "encoding/json"

// Algorithm selects which edit-script algorithm Engine.Diff runs (spec §9:
// "model as a sum type, dispatch by value, not inheritance").
type Algorithm int

const (
	AlgorithmMyers Algorithm = iota
	AlgorithmPatience
	AlgorithmHistogram
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmMyers:
		return "myers"
	case AlgorithmPatience:
		return "patience"
	case AlgorithmHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Granularity selects the tokenization unit. The core algorithms (C1-C6)
// always operate on Granularity Line; Word and Char only matter to the
// intra-line Segment function (C7, spec §6).
type Granularity int

const (
	GranularityLine Granularity = iota
	GranularityWord
	GranularityChar
)

// Options is the full set of enumerated engine configuration values (spec
// §6). The zero value is line-granularity Myers with a context radius of 0
// and every normalization rule off; DefaultOptions returns the same with a
// context radius of 3.
type Options struct {
	Algorithm        Algorithm
	Granularity      Granularity
	Context          int
	IgnoreWhitespace Whitespace
	IgnoreCase       bool
	TrimLines        bool
	IgnoreBlankLines bool
}

// DefaultOptions returns the documented default configuration (spec §6:
// context defaults to 3).
func DefaultOptions() Options {
	return Options{Algorithm: AlgorithmMyers, Granularity: GranularityLine, Context: 3}
}

// DiffResult is the immutable outcome of a Diff call: strictly data, no
// behavior beyond the two serialization methods below, ToUnifiedString and
// ToJSON; it has no HTML serializer (spec §9: "a struct with methods — the
// contract is data, not behavior").
type DiffResult struct {
	Hunks      []Hunk    `json:"hunks"`
	Stats      DiffStats `json:"stats"`
	OldContent string    `json:"-"`
	NewContent string    `json:"-"`
	Options    Options   `json:"options"`
}

// ToUnifiedString renders the result as unified-diff text per spec §6: one
// header line per hunk, immediately followed by its changes, each change
// prefixed by one of ' ', '+', '-'. No blank separators and no "\ No
// newline at end of file" marker.
func (r DiffResult) ToUnifiedString() string {
	var b []byte
	for _, h := range r.Hunks {
		b = append(b, h.Header()...)
		b = append(b, '\n')
		for _, c := range h.Changes {
			switch c.Kind {
			case ChangeAdd:
				b = append(b, '+')
			case ChangeDelete:
				b = append(b, '-')
			default:
				b = append(b, ' ')
			}
			b = append(b, c.Content...)
			b = append(b, '\n')
		}
	}
	return string(b)
}

// ToJSON renders the result as the strictly-data JSON shape from spec §6:
// { hunks, stats, options }.
func (r DiffResult) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// Engine is the mutable, chainable façade (spec §4.8, §9). Its plugin list
// and configuration are not safe for concurrent mutation; distinct Engine
// values are fully independent (spec §5).
type Engine struct {
	opts    Options
	plugins []Plugin
}

// NewEngine returns an Engine configured with DefaultOptions.
func NewEngine() *Engine {
	return &Engine{opts: DefaultOptions()}
}

func (e *Engine) SetAlgorithm(a Algorithm) *Engine   { e.opts.Algorithm = a; return e }
func (e *Engine) SetGranularity(g Granularity) *Engine { e.opts.Granularity = g; return e }
func (e *Engine) SetContext(c int) *Engine           { e.opts.Context = c; return e }
func (e *Engine) SetIgnoreWhitespace(w Whitespace) *Engine {
	e.opts.IgnoreWhitespace = w
	return e
}
func (e *Engine) SetIgnoreCase(v bool) *Engine       { e.opts.IgnoreCase = v; return e }
func (e *Engine) SetTrimLines(v bool) *Engine        { e.opts.TrimLines = v; return e }
func (e *Engine) SetIgnoreBlankLines(v bool) *Engine { e.opts.IgnoreBlankLines = v; return e }
func (e *Engine) Use(p Plugin) *Engine               { e.plugins = append(e.plugins, p); return e }
func (e *Engine) Options() Options                   { return e.opts }

// SetOptions overwrites the engine's whole configuration at once, useful
// when a caller already assembled an Options value (e.g. from decoded
// request query parameters) rather than chaining individual setters.
func (e *Engine) SetOptions(o Options) *Engine { e.opts = o; return e }

// Diff runs the full pipeline described in spec §4.8: before-hooks, line
// splitting and normalization, optional blank-line filtering, algorithm
// dispatch, hunk assembly, stats, then after-hooks.
func (e *Engine) Diff(oldText, newText string) (DiffResult, error) {
	oldText = runBeforeHooks(e.plugins, oldText)
	newText = runBeforeHooks(e.plugins, newText)

	oldDisp := GetLines(oldText)
	newDisp := GetLines(newText)

	oldNorm := NormalizeLines(oldDisp, e.opts.IgnoreWhitespace, e.opts.TrimLines, e.opts.IgnoreCase)
	newNorm := NormalizeLines(newDisp, e.opts.IgnoreWhitespace, e.opts.TrimLines, e.opts.IgnoreCase)

	var oldIndexMap, newIndexMap []int
	oldAlgoLines, newAlgoLines := oldNorm, newNorm
	if e.opts.IgnoreBlankLines {
		oldAlgoLines, oldIndexMap = FilterBlankLines(oldNorm)
		newAlgoLines, newIndexMap = FilterBlankLines(newNorm)
	}

	var ops []Operation
	switch e.opts.Algorithm {
	case AlgorithmMyers:
		ops = myersDiff(oldAlgoLines, newAlgoLines)
	case AlgorithmPatience:
		ops = patienceDiff(oldAlgoLines, newAlgoLines)
	case AlgorithmHistogram:
		ops = histogramDiff(oldAlgoLines, newAlgoLines)
	default:
		return DiffResult{}, &ErrUnknownAlgorithm{Name: e.opts.Algorithm.String()}
	}

	if err := checkIndexMaps(oldIndexMap, len(oldDisp), newIndexMap, len(newDisp)); err != nil {
		return DiffResult{}, err
	}

	hunks := assembleHunks(ops, oldDisp, newDisp, oldIndexMap, newIndexMap, e.opts.Context)
	stats := computeStats(hunks, oldDisp, newDisp)

	result := DiffResult{
		Hunks:      hunks,
		Stats:      stats,
		OldContent: oldText,
		NewContent: newText,
		Options:    e.opts,
	}
	result = runAfterHooks(e.plugins, result)
	return result, nil
}

// checkIndexMaps validates the spec §7 "index-map translation failure"
// invariant before the assembler consumes the maps: every entry must be a
// valid index into the corresponding original display array.
func checkIndexMaps(oldIndexMap []int, oldLen int, newIndexMap []int, newLen int) error {
	for _, idx := range oldIndexMap {
		if idx < 0 || idx >= oldLen {
			return &ErrIndexMapInvariant{Side: "old", Index: idx, Max: oldLen}
		}
	}
	for _, idx := range newIndexMap {
		if idx < 0 || idx >= newLen {
			return &ErrIndexMapInvariant{Side: "new", Index: idx, Max: newLen}
		}
	}
	return nil
}
