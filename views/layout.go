package views

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

func esc(s string) string { return html.EscapeString(s) }

// component wraps a builder func as a templ.Component so handlers can render
// it through the shared Render helpers.
func component(build func(b *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		build(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeHead(b *strings.Builder, cfg SiteConfig, meta PageMeta, jsonLD string, scripts ...string) {
	title := meta.Title
	if title == "" {
		title = cfg.Name
	} else if title != cfg.Name {
		title += " · " + cfg.Name
	}
	ogType := meta.OGType
	if ogType == "" {
		ogType = "website"
	}

	b.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	b.WriteString(`<meta charset="utf-8"/>`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
	b.WriteString(`<title>` + esc(title) + `</title>`)
	if meta.Description != "" {
		b.WriteString(`<meta name="description" content="` + esc(meta.Description) + `"/>`)
		b.WriteString(`<meta property="og:description" content="` + esc(meta.Description) + `"/>`)
	}
	if meta.URL != "" {
		b.WriteString(`<link rel="canonical" href="` + esc(meta.URL) + `"/>`)
		b.WriteString(`<meta property="og:url" content="` + esc(meta.URL) + `"/>`)
	}
	b.WriteString(`<meta property="og:title" content="` + esc(title) + `"/>`)
	b.WriteString(`<meta property="og:type" content="` + ogType + `"/>`)
	b.WriteString(`<meta property="og:site_name" content="` + esc(cfg.Name) + `"/>`)
	b.WriteString(`<link rel="icon" href="/favicon.svg" type="image/svg+xml"/>`)
	b.WriteString(`<link rel="alternate" type="application/rss+xml" title="` + esc(cfg.Name) + `" href="/feed.xml"/>`)
	b.WriteString(`<link rel="stylesheet" href="/public/site.css"/>`)
	for _, src := range scripts {
		b.WriteString(`<script src="` + esc(src) + `" defer=""></script>`)
	}
	if jsonLD != "" {
		// json.Marshal escapes angle brackets, so the payload cannot close
		// the script element early.
		b.WriteString(`<script type="application/ld+json">` + jsonLD + `</script>`)
	}
	b.WriteString(`</head><body>`)
}

func writeSiteHeader(b *strings.Builder, cfg SiteConfig) {
	b.WriteString(`<header class="site-header"><div class="wrap">`)
	b.WriteString(`<a class="site-title" href="/">` + esc(cfg.Name) + `</a>`)
	b.WriteString(`<nav><a href="/">Posts</a> <a href="/feed.xml">Feed</a></nav>`)
	b.WriteString(`</div></header>`)
}

func writeFooter(b *strings.Builder, cfg SiteConfig) {
	b.WriteString(`<footer class="site-footer"><div class="wrap">`)
	if cfg.Author != "" {
		b.WriteString(`<p>` + esc(cfg.Name) + ` · ` + esc(cfg.Author) + `</p>`)
	} else {
		b.WriteString(`<p>` + esc(cfg.Name) + `</p>`)
	}
	b.WriteString(`</div></footer></body></html>`)
}

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return component(func(b *strings.Builder) {
		writeHead(b, cfg, PageMeta{Title: "Not Found"}, "")
		writeSiteHeader(b, cfg)
		b.WriteString(`<main class="wrap"><h1>404</h1><p>That page does not exist.</p><p><a href="/">Back to the front page</a></p></main>`)
		writeFooter(b, cfg)
	})
}

// ServerError renders the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return component(func(b *strings.Builder) {
		writeHead(b, cfg, PageMeta{Title: "Server Error"}, "")
		writeSiteHeader(b, cfg)
		b.WriteString(`<main class="wrap"><h1>Something went wrong</h1><p>Try again in a moment.</p></main>`)
		writeFooter(b, cfg)
	})
}
