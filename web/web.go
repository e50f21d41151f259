package web

import (
	"embed"
	"html/template"

	"github.com/sidhant-sriv/home-catalog/catalog"
)

// Embed the page templates.
//
//go:embed templates/*.gohtml
var FS embed.FS

var funcs = template.FuncMap{
	// query re-encodes q with the given key/value pairs applied.
	"query": func(q catalog.QueryState, kv ...string) template.URL {
		for i := 0; i+1 < len(kv); i += 2 {
			q = q.With(kv[i], kv[i+1])
		}
		return QueryURL(q)
	},
}

// QueryURL marks an encoded query state as safe to place after "?" in a URL
// attribute. Encode already percent-escapes every value.
func QueryURL(q catalog.QueryState) template.URL {
	return template.URL(q.Encode())
}

// Templates parses every page template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(FS, "templates/*.gohtml")
}
