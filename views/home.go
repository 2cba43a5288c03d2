package views

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Home renders the front page: published posts newest first, filterable by
// tag and category, ten to a page.
func Home(cfg SiteConfig, posts []Post, activeTag string, tags []string, activeCategory string, categories []string, pager Pager) templ.Component {
	return component(func(b *strings.Builder) {
		meta := PageMeta{
			Title:       cfg.Name,
			Description: cfg.Description,
			URL:         buildURL(cfg.URL),
			OGType:      "website",
		}
		writeHead(b, cfg, meta, WebsiteJsonLD(cfg))
		writeSiteHeader(b, cfg)
		b.WriteString(`<main class="wrap">`)

		if len(tags) > 0 {
			b.WriteString(`<nav class="tag-nav">`)
			b.WriteString(`<a class="` + TagClass(activeTag == "") + `" href="/">All</a>`)
			for _, t := range tags {
				b.WriteString(`<a class="` + TagClass(strings.EqualFold(t, activeTag)) + `" href="/?tag=` + PathEscape(t) + `">` + esc(t) + `</a>`)
			}
			b.WriteString(`</nav>`)
		}
		if len(categories) > 0 {
			b.WriteString(`<nav class="category-nav">`)
			for _, cat := range categories {
				b.WriteString(`<a class="` + TagClass(strings.EqualFold(cat, activeCategory)) + `" href="/?category=` + PathEscape(cat) + `">` + esc(cat) + `</a>`)
			}
			b.WriteString(`</nav>`)
		}

		if len(posts) == 0 {
			b.WriteString(`<p class="empty">Nothing published yet.</p>`)
		}
		b.WriteString(`<section class="post-list">`)
		for _, p := range posts {
			b.WriteString(`<article class="post-card">`)
			b.WriteString(`<h2><a href="` + esc(p.Link) + `">` + esc(p.Title) + `</a></h2>`)
			b.WriteString(`<p class="post-date">` + esc(p.Date))
			if p.Category != "" {
				b.WriteString(` · ` + esc(p.Category))
			}
			b.WriteString(`</p>`)
			if p.Summary != "" {
				b.WriteString(`<p class="post-summary">` + esc(p.Summary) + `</p>`)
			}
			if len(p.Tags) > 0 {
				b.WriteString(`<p class="post-tags">`)
				for _, t := range p.Tags {
					b.WriteString(`<a class="` + TagClass(false) + `" href="/?tag=` + PathEscape(t) + `">` + esc(t) + `</a> `)
				}
				b.WriteString(`</p>`)
			}
			b.WriteString(`</article>`)
		}
		b.WriteString(`</section>`)

		if pager.Pages > 1 {
			b.WriteString(`<nav class="pager">`)
			if pager.PrevURL != "" {
				b.WriteString(`<a class="pager-prev" href="` + esc(pager.PrevURL) + `">&larr; Newer</a>`)
			}
			b.WriteString(`<span class="pager-state">Page ` + strconv.Itoa(pager.Page) + ` of ` + strconv.Itoa(pager.Pages) + `</span>`)
			if pager.NextURL != "" {
				b.WriteString(`<a class="pager-next" href="` + esc(pager.NextURL) + `">Older &rarr;</a>`)
			}
			b.WriteString(`</nav>`)
		}
		b.WriteString(`</main>`)
		writeFooter(b, cfg)
	})
}
