// Package sanitize cleans HTML against fixed allow-lists: author content at
// write time, titles, and generated widget fragments at render time.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var (
	contentPolicy  = newContentPolicy()
	titlePolicy    = bluemonday.NewPolicy().AllowElements("b", "i", "u", "strong", "em")
	fragmentPolicy = newFragmentPolicy()
	strictPolicy   = bluemonday.StrictPolicy()
)

// newContentPolicy is the storage allow-list for author rich text. Tags and
// attributes outside it are stripped, keeping their inner text.
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "strong", "b", "em", "i", "u",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "code", "pre",
		"a", "img",
	)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowStandardURLs()
	return p
}

// newFragmentPolicy covers the markup widget renderers emit on top of the
// content allow-list: form controls, media embeds, and the class and data-*
// attributes the client script keys on.
func newFragmentPolicy() *bluemonday.Policy {
	p := newContentPolicy()
	p.AllowElements("div", "span", "form", "label", "button", "canvas", "video", "embed")
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowAttrs("action", "method").OnElements("form")
	p.AllowAttrs("type", "name", "value", "required", "checked").OnElements("input")
	p.AllowAttrs("type", "disabled").OnElements("button")
	p.AllowAttrs("width", "height").OnElements("canvas")
	p.AllowAttrs("src", "controls", "preload").OnElements("video")
	p.AllowAttrs("src", "type", "width", "height").OnElements("embed")
	p.AllowAttrs("download").OnElements("a")
	return p
}

// Content cleans author rich text. Applied once at write time; reapplying to
// its own output is a no-op, so render paths may call it defensively.
func Content(html string) string {
	return contentPolicy.Sanitize(html)
}

// Title cleans a post title, allowing inline emphasis only.
func Title(s string) string {
	return titlePolicy.Sanitize(s)
}

// Fragment cleans a generated widget fragment before it is stitched into the
// rendered page.
func Fragment(html string) string {
	return fragmentPolicy.Sanitize(html)
}

// Text strips all markup, leaving escaped plain text.
func Text(s string) string {
	return strictPolicy.Sanitize(s)
}
