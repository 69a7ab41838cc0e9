// Package templates holds the HTML rendering the HTTP surface serves to
// browsers (as opposed to the raw unified-diff text served to non-browser
// clients).
package templates

import (
	"embed"
	"html"
	"html/template"
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/ersinkoc/diffkit/pkg/diff"
)

var (
	funcMap = map[string]any{
		"hunk_header": func(hunk diff.Hunk) string {
			return hunk.Header()
		},
	}
	Templates = template.Must(
		template.New("").
			Funcs(funcMap).
			ParseFS(templateFS, "*.tmpl"),
	)
	//go:embed *.tmpl
	templateFS embed.FS
)

// IndexTemplateData is passed to index.tmpl.
type IndexTemplateData struct {
	PublicURL string
}

// FileTemplateData is passed to file.tmpl.
type FileTemplateData struct {
	ID      string
	Result  diff.DiffResult
	Algo    string
	Space   string
	Context int
	Split   bool
	Query   url.Values
}

// WithQueryValue returns the query string resulting from setting (or, for
// an empty value, removing) key in f.Query, prefixed with "?", or "" if the
// resulting query string would be empty.
func (f *FileTemplateData) WithQueryValue(key, value string) string {
	uvCopy := make(url.Values)
	maps.Copy(uvCopy, f.Query)
	if value == "" {
		uvCopy.Del(key)
	} else {
		uvCopy.Set(key, value)
	}
	if len(uvCopy) == 0 {
		return ""
	}
	return "?" + uvCopy.Encode()
}

// ContextLinks renders a row of links letting the viewer widen or narrow
// the context radius around f.Context.
func (f *FileTemplateData) ContextLinks() template.HTML {
	const (
		minVal = 0
		maxVal = 1000
	)
	smallest := f.Context - 3
	greatest := f.Context + 3
	if smallest < minVal {
		greatest += minVal - smallest
		smallest = minVal
	}
	if greatest > maxVal {
		smallest -= greatest - maxVal
		greatest = maxVal
	}
	var bld strings.Builder

	for i := smallest; i <= greatest; i++ {
		if bld.Len() != 0 {
			bld.WriteString(" | ")
		}
		if i == f.Context {
			bld.WriteString("<b>" + strconv.Itoa(f.Context) + "</b>")
			continue
		}
		intString := strconv.Itoa(i)
		if intString == "3" {
			intString = ""
		}
		uri := "/" + f.ID + f.WithQueryValue("c", intString)
		bld.WriteString(
			`<a href="` + html.EscapeString(uri) + `">` +
				strconv.Itoa(i) + `</a>`,
		)
	}
	return template.HTML(bld.String())
}
