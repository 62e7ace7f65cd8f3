// Package render converts stored article content to display-safe HTML.
// Markdown is converted at read time; HTML is sanitized against an explicit
// allow-list both at write time (editor input) and again before display.
package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md renders CommonMark with tables, strikethrough, and hard line breaks
// (a bare newline becomes <br>, matching the editor's expectations).
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// policy is the tag/attribute allow-list applied to every piece of HTML
// that leaves the service. Anything not listed is stripped.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "strong", "em", "u", "s", "del", "i", "b",
		"code", "pre", "kbd", "mark", "sub", "sup",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "a", "img", "figure", "figcaption",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption", "colgroup", "col",
		"hr", "span", "div", "label", "input",
	)

	p.AllowAttrs("href", "title", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height", "style").OnElements("img")
	p.AllowAttrs("class").OnElements("code", "label")
	p.AllowAttrs("class", "data-language").OnElements("pre")
	p.AllowAttrs("class", "style").OnElements("span", "div", "table", "figure")
	p.AllowAttrs("style").OnElements("p")
	p.AllowAttrs("align", "style", "colspan", "rowspan", "scope").OnElements("th")
	p.AllowAttrs("align", "style", "colspan", "rowspan").OnElements("td")
	// Checkbox rendering for todo-list items.
	p.AllowAttrs("class").OnElements("li")
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")

	p.AllowStandardURLs()
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// Sanitize strips everything outside the allow-list from raw HTML.
func Sanitize(rawHTML string) string {
	return policy.Sanitize(rawHTML)
}

// Markdown converts markdown source to sanitized HTML.
func Markdown(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		// Conversion only fails on writer errors, which a bytes.Buffer
		// cannot produce; fall back to escaping via the sanitizer.
		return policy.Sanitize(source)
	}
	return policy.Sanitize(buf.String())
}
