// Package api decodes the HTTP surface's query-string contract into
// pkg/diff.Options (spec §4.11a).
package api

import (
	"net/url"
	"strconv"

	"github.com/ersinkoc/diffkit/pkg/diff"
)

// ParseOptions maps a request's query values onto a diff.Options, following
// the table in spec §4.11a. Context defaults to 3 and clamps to [0,1000].
func ParseOptions(qry url.Values) (diff.Options, error) {
	opts := diff.Options{Context: 3}

	if algo := qry.Get("algo"); algo != "" {
		a, err := parseAlgorithm(algo)
		if err != nil {
			return diff.Options{}, err
		}
		opts.Algorithm = a
	}

	if c, err := strconv.Atoi(qry.Get("c")); err == nil {
		opts.Context = max(0, min(1000, c))
	}

	switch qry.Get("w") {
	case "w": // mirrors GNU diff's --ignore-all-space
		opts.IgnoreWhitespace = diff.WhitespaceAll
	case "b": // mirrors GNU diff's --ignore-space-change
		opts.IgnoreWhitespace = diff.WhitespaceCollapse
	default:
		opts.IgnoreWhitespace = diff.WhitespaceOff
	}

	opts.IgnoreCase = qry.Has("ic")
	opts.IgnoreBlankLines = qry.Has("blank")

	return opts, nil
}

func parseAlgorithm(s string) (diff.Algorithm, error) {
	switch s {
	case "myers", "":
		return diff.AlgorithmMyers, nil
	case "patience":
		return diff.AlgorithmPatience, nil
	case "histogram":
		return diff.AlgorithmHistogram, nil
	default:
		return 0, &diff.ErrUnknownAlgorithm{Name: s}
	}
}
