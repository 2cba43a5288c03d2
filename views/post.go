package views

import (
	"strings"

	"github.com/a-h/templ"
)

// PostPage renders a single post. post.Body is trusted display HTML: it has
// been through the widget pipeline and both sanitizer passes before it gets
// here, so it is written without further escaping.
func PostPage(cfg SiteConfig, post Post, related []Post) templ.Component {
	return component(func(b *strings.Builder) {
		meta := PageMeta{
			Title:       post.Title,
			Description: post.Summary,
			URL:         buildURL(cfg.URL, "posts", post.Slug),
			OGType:      "article",
		}
		writeHead(b, cfg, meta, BlogPostingJsonLD(cfg, post), "/public/widgets.js")
		writeSiteHeader(b, cfg)
		b.WriteString(`<main class="wrap"><article class="post">`)
		b.WriteString(`<h1>` + esc(post.Title) + `</h1>`)
		b.WriteString(`<p class="post-date">` + esc(post.Date))
		if post.Category != "" {
			b.WriteString(` · ` + esc(post.Category))
		}
		b.WriteString(`</p>`)
		if len(post.Tags) > 0 {
			b.WriteString(`<p class="post-tags">`)
			for _, t := range post.Tags {
				b.WriteString(`<a class="` + TagClass(false) + `" href="/?tag=` + PathEscape(t) + `">` + esc(t) + `</a> `)
			}
			b.WriteString(`</p>`)
		}
		b.WriteString(`<div class="post-body">`)
		b.WriteString(post.Body)
		b.WriteString(`</div></article>`)

		if len(related) > 0 {
			b.WriteString(`<aside class="related"><h2>Related posts</h2><ul>`)
			for _, r := range related {
				b.WriteString(`<li><a href="` + esc(r.Link) + `">` + esc(r.Title) + `</a></li>`)
			}
			b.WriteString(`</ul></aside>`)
		}
		b.WriteString(`</main>`)
		writeFooter(b, cfg)
	})
}
