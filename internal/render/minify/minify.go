// Package minify shrinks handler output before it is written to staging.
package minify

import (
	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

const (
	htmlType = "text/html"
	jsType   = "application/javascript"
)

var m = newMinifier()

// Document structure and attribute quotes are kept so theme CSS and loaders
// selecting on them keep working. Inline scripts are minified too.
func newMinifier() *tdminify.M {
	mm := tdminify.New()
	mm.Add(htmlType, &html.Minifier{KeepDocumentTags: true, KeepEndTags: true, KeepQuotes: true})
	mm.Add(jsType, &js.Minifier{KeepVarNames: true})
	return mm
}

// HTML collapses insignificant whitespace and drops comments. Whitespace
// between inline elements shrinks to one space; pre and textarea contents
// are left untouched.
func HTML(src []byte) ([]byte, error) {
	return m.Bytes(htmlType, src)
}

// JS minifies script source. String and template literal contents are
// preserved; syntax errors are returned.
func JS(src string) (string, error) {
	return m.String(jsType, src)
}
