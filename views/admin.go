package views

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

func writeAdminHeader(b *strings.Builder, cfg SiteConfig, username, csrf string) {
	b.WriteString(`<header class="site-header admin-header"><div class="wrap">`)
	b.WriteString(`<a class="site-title" href="/admin/">` + esc(cfg.Name) + ` admin</a>`)
	b.WriteString(`<nav>`)
	b.WriteString(`<a href="/admin/">Posts</a> `)
	b.WriteString(`<a href="/admin/post/new/">New post</a> `)
	b.WriteString(`<a href="/admin/uploads/">Uploads</a> `)
	b.WriteString(`<a href="/admin/analytics/">Analytics</a> `)
	b.WriteString(`<a href="/admin/users/">Users</a>`)
	b.WriteString(`</nav>`)
	b.WriteString(`<form class="logout-form" action="/admin/logout/" method="post">`)
	b.WriteString(csrfField(csrf))
	if username != "" {
		b.WriteString(`<span class="whoami">` + esc(username) + `</span> `)
	}
	b.WriteString(`<button type="submit">Log out</button></form>`)
	b.WriteString(`</div></header>`)
}

func csrfField(token string) string {
	return `<input type="hidden" name="_csrf" value="` + esc(token) + `"/>`
}

// AdminLogin renders the login form. errMsg is shown above the form when a
// previous attempt failed or was blocked.
func AdminLogin(cfg SiteConfig, errMsg, csrf string) templ.Component {
	return component(func(b *strings.Builder) {
		writeHead(b, cfg, PageMeta{Title: "Sign in"}, "")
		writeSiteHeader(b, cfg)
		b.WriteString(`<main class="wrap"><section class="login-box"><h1>Sign in</h1>`)
		if errMsg != "" {
			b.WriteString(`<p class="error">` + esc(errMsg) + `</p>`)
		}
		b.WriteString(`<form action="/admin/login/" method="post">`)
		b.WriteString(csrfField(csrf))
		b.WriteString(`<label>Username <input type="text" name="username" required="" autofocus=""/></label>`)
		b.WriteString(`<label>Password <input type="password" name="password" required=""/></label>`)
		b.WriteString(`<button type="submit">Sign in</button>`)
		b.WriteString(`</form></section></main>`)
		writeFooter(b, cfg)
	})
}

// AdminDashboard renders the post overview table for signed-in authors.
func AdminDashboard(cfg SiteConfig, posts []Post, message, username, csrf string) templ.Component {
	return component(func(b *strings.Builder) {
		writeHead(b, cfg, PageMeta{Title: "Dashboard"}, "")
		writeAdminHeader(b, cfg, username, csrf)
		b.WriteString(`<main class="wrap">`)
		if message != "" {
			b.WriteString(`<p class="notice">` + esc(message) + `</p>`)
		}
		b.WriteString(`<h1>Posts</h1>`)
		if len(posts) == 0 {
			b.WriteString(`<p class="empty">No posts yet. <a href="/admin/post/new/">Write the first one.</a></p>`)
		} else {
			b.WriteString(`<table class="admin-table"><thead><tr><th>Title</th><th>Status</th><th>Category</th><th>Updated</th><th></th></tr></thead><tbody>`)
			for _, p := range posts {
				id := strconv.FormatInt(p.ID, 10)
				b.WriteString(`<tr>`)
				b.WriteString(`<td><a href="/admin/post/` + id + `/">` + esc(p.Title) + `</a></td>`)
				if p.Draft {
					b.WriteString(`<td><span class="status status-draft">draft</span></td>`)
				} else {
					b.WriteString(`<td><a class="status status-published" href="` + esc(p.Link) + `">published</a></td>`)
				}
				b.WriteString(`<td>` + esc(p.Category) + `</td>`)
				b.WriteString(`<td>` + esc(p.Updated) + `</td>`)
				b.WriteString(`<td><form class="inline-form" action="/admin/post/` + id + `/delete/" method="post">` + csrfField(csrf))
				b.WriteString(`<button type="submit" class="danger" data-confirm="Delete this post and its widgets?">Delete</button></form></td>`)
				b.WriteString(`</tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</main>`)
		writeFooter(b, cfg)
	})
}

// PostForm renders the post editor: the post fields, the widget panel with
// shortcode markers, and the revision history.
func PostForm(cfg SiteConfig, post Post, widgets []WidgetItem, revisions []RevisionItem, username, csrf string, isNew bool) templ.Component {
	return component(func(b *strings.Builder) {
		title := "Edit post"
		if isNew {
			title = "New post"
		}
		writeHead(b, cfg, PageMeta{Title: title}, "", "/public/editor.js")
		writeAdminHeader(b, cfg, username, csrf)
		id := strconv.FormatInt(post.ID, 10)

		b.WriteString(`<main class="wrap editor-layout">`)
		b.WriteString(`<section class="editor-main"><h1>` + esc(title) + `</h1>`)
		b.WriteString(`<form id="post-form" action="/admin/save/" method="post">`)
		b.WriteString(csrfField(csrf))
		b.WriteString(`<input type="hidden" name="id" value="` + id + `"/>`)
		b.WriteString(`<label>Title <input type="text" name="title" value="` + esc(post.Title) + `" required=""/></label>`)
		b.WriteString(`<label>Slug <input type="text" name="slug" value="` + esc(post.Slug) + `" placeholder="left empty, derived from the title"/></label>`)
		b.WriteString(`<label>Summary <textarea name="summary" rows="2">` + esc(post.Summary) + `</textarea></label>`)
		b.WriteString(`<label>Category <input type="text" name="category" value="` + esc(post.Category) + `"/></label>`)
		b.WriteString(`<label>Tags <input type="text" id="post-tags" name="tags" value="` + esc(JoinTags(post.Tags)) + `" placeholder="comma, separated"/></label>`)
		b.WriteString(`<button type="button" id="suggest-tags" data-endpoint="/admin/api/suggest-tags">Suggest tags</button>`)
		b.WriteString(`<label>Status <select name="status">`)
		if post.Draft {
			b.WriteString(`<option value="draft" selected="">draft</option><option value="published">published</option>`)
		} else {
			b.WriteString(`<option value="draft">draft</option><option value="published" selected="">published</option>`)
		}
		b.WriteString(`</select></label>`)
		b.WriteString(`<label>Body <textarea id="post-body" name="body" rows="24">` + esc(post.Body) + `</textarea></label>`)
		b.WriteString(`<button type="submit">Save</button>`)
		b.WriteString(`</form></section>`)

		b.WriteString(`<aside class="editor-side">`)
		writeWidgetPanel(b, post.ID, widgets, csrf, isNew)
		writeRevisionPanel(b, id, revisions, csrf, isNew)
		b.WriteString(`</aside>`)
		b.WriteString(`</main>`)
		writeFooter(b, cfg)
	})
}

func writeWidgetPanel(b *strings.Builder, postID int64, widgets []WidgetItem, csrf string, isNew bool) {
	b.WriteString(`<section class="widget-panel"><h2>Widgets</h2>`)
	if isNew {
		b.WriteString(`<p class="hint">Save the post first, then attach widgets here.</p></section>`)
		return
	}
	id := strconv.FormatInt(postID, 10)

	if len(widgets) > 0 {
		b.WriteString(`<ul class="widget-list">`)
		for _, w := range widgets {
			b.WriteString(`<li><code>` + esc(w.Marker) + `</code> ` + esc(w.Label))
			b.WriteString(` <button type="button" class="insert-marker" data-marker="` + esc(w.Marker) + `">Insert</button>`)
			b.WriteString(`<form class="inline-form" action="/admin/widgets/delete/" method="post">` + csrfField(csrf))
			b.WriteString(`<input type="hidden" name="kind" value="` + esc(w.Kind) + `"/>`)
			b.WriteString(`<input type="hidden" name="id" value="` + strconv.FormatInt(w.ID, 10) + `"/>`)
			b.WriteString(`<input type="hidden" name="post_id" value="` + id + `"/>`)
			b.WriteString(`<button type="submit" class="danger">Remove</button></form></li>`)
		}
		b.WriteString(`</ul>`)
	}

	b.WriteString(`<details><summary>Add quiz</summary>`)
	b.WriteString(`<form action="/admin/widgets/quiz/" method="post">` + csrfField(csrf))
	b.WriteString(`<input type="hidden" name="post_id" value="` + id + `"/>`)
	b.WriteString(`<label>Question <input type="text" name="question" required=""/></label>`)
	b.WriteString(`<label>Kind <select name="kind"><option value="multiple_choice">multiple choice</option><option value="true_false">true / false</option></select></label>`)
	b.WriteString(`<label>Options (one per line) <textarea name="options" rows="4"></textarea></label>`)
	b.WriteString(`<label>Correct answer <input type="text" name="correct_answer" required=""/></label>`)
	b.WriteString(`<button type="submit">Add quiz</button></form></details>`)

	b.WriteString(`<details><summary>Add chart</summary>`)
	b.WriteString(`<form action="/admin/widgets/chart/" method="post">` + csrfField(csrf))
	b.WriteString(`<input type="hidden" name="post_id" value="` + id + `"/>`)
	b.WriteString(`<label>Title <input type="text" name="title"/></label>`)
	b.WriteString(`<label>Labels (comma separated) <input type="text" name="labels" required=""/></label>`)
	b.WriteString(`<label>Series (Name: 1, 2, 3 per line) <textarea name="series" rows="4" required=""></textarea></label>`)
	b.WriteString(`<button type="submit">Add chart</button></form></details>`)

	b.WriteString(`<details><summary>Add video</summary>`)
	b.WriteString(`<form action="/admin/widgets/video/" method="post">` + csrfField(csrf))
	b.WriteString(`<input type="hidden" name="post_id" value="` + id + `"/>`)
	b.WriteString(`<label>Title <input type="text" name="title"/></label>`)
	b.WriteString(`<label>URL <input type="text" name="url" placeholder="/uploads/clip.mp4" required=""/></label>`)
	b.WriteString(`<button type="submit">Add video</button></form></details>`)

	b.WriteString(`<details><summary>Add PDF</summary>`)
	b.WriteString(`<form action="/admin/widgets/pdf/" method="post">` + csrfField(csrf))
	b.WriteString(`<input type="hidden" name="post_id" value="` + id + `"/>`)
	b.WriteString(`<label>Title <input type="text" name="title"/></label>`)
	b.WriteString(`<label>URL <input type="text" name="url" placeholder="/uploads/paper.pdf" required=""/></label>`)
	b.WriteString(`<button type="submit">Add PDF</button></form></details>`)

	b.WriteString(`</section>`)
}

func writeRevisionPanel(b *strings.Builder, postID string, revisions []RevisionItem, csrf string, isNew bool) {
	if isNew || len(revisions) == 0 {
		return
	}
	b.WriteString(`<section class="revision-panel"><h2>History</h2><ul>`)
	for _, r := range revisions {
		b.WriteString(`<li>` + esc(r.SavedAt) + ` · ` + esc(r.Title))
		b.WriteString(`<form class="inline-form" action="/admin/post/` + postID + `/restore/" method="post">` + csrfField(csrf))
		b.WriteString(`<input type="hidden" name="revision_id" value="` + strconv.FormatInt(r.ID, 10) + `"/>`)
		b.WriteString(`<button type="submit" data-confirm="Replace the current draft with this revision?">Restore</button></form></li>`)
	}
	b.WriteString(`</ul></section>`)
}

// UploadsPage renders the media library with an upload form.
func UploadsPage(cfg SiteConfig, uploads []UploadItem, message, username, csrf string) templ.Component {
	return component(func(b *strings.Builder) {
		writeHead(b, cfg, PageMeta{Title: "Uploads"}, "", "/public/editor.js")
		writeAdminHeader(b, cfg, username, csrf)
		b.WriteString(`<main class="wrap"><h1>Uploads</h1>`)
		if message != "" {
			b.WriteString(`<p class="notice">` + esc(message) + `</p>`)
		}
		b.WriteString(`<form class="upload-form" action="/admin/uploads/" method="post" enctype="multipart/form-data">`)
		b.WriteString(csrfField(csrf))
		b.WriteString(`<label>File <input type="file" name="file" required=""/></label>`)
		b.WriteString(`<button type="submit">Upload</button>`)
		b.WriteString(`<p class="hint">Images are resized and recompressed. Videos (mp4, webm, ogg) and PDFs are stored as-is.</p>`)
		b.WriteString(`</form>`)

		if len(uploads) == 0 {
			b.WriteString(`<p class="empty">Nothing uploaded yet.</p>`)
		} else {
			b.WriteString(`<table class="admin-table"><thead><tr><th>File</th><th>Kind</th><th>Size</th><th>Uploaded</th><th></th></tr></thead><tbody>`)
			for _, u := range uploads {
				b.WriteString(`<tr>`)
				b.WriteString(`<td><a href="` + esc(u.URL) + `">` + esc(u.Original) + `</a><br/><code>` + esc(u.URL) + `</code></td>`)
				b.WriteString(`<td>` + esc(u.Kind) + `</td>`)
				b.WriteString(`<td>` + esc(u.Size) + `</td>`)
				b.WriteString(`<td>` + esc(u.Date) + `</td>`)
				b.WriteString(`<td><form class="inline-form" action="/admin/uploads/` + PathEscape(u.Filename) + `/delete/" method="post">` + csrfField(csrf))
				b.WriteString(`<button type="submit" class="danger" data-confirm="Delete this file?">Delete</button></form></td>`)
				b.WriteString(`</tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</main>`)
		writeFooter(b, cfg)
	})
}

// UsersPage lists author accounts for admins. Accounts are created with the
// adduser command; deletion happens here.
func UsersPage(cfg SiteConfig, users []UserItem, message, username, csrf string) templ.Component {
	return component(func(b *strings.Builder) {
		writeHead(b, cfg, PageMeta{Title: "Users"}, "")
		writeAdminHeader(b, cfg, username, csrf)
		b.WriteString(`<main class="wrap"><h1>Users</h1>`)
		if message != "" {
			b.WriteString(`<p class="notice">` + esc(message) + `</p>`)
		}
		b.WriteString(`<table class="admin-table"><thead><tr><th>Username</th><th>Role</th><th>Created</th><th>Status</th><th></th></tr></thead><tbody>`)
		for _, u := range users {
			b.WriteString(`<tr><td>` + esc(u.Username) + `</td><td>` + esc(u.Role) + `</td><td>` + esc(u.Created) + `</td>`)
			if u.Locked {
				b.WriteString(`<td><span class="status status-locked">locked</span></td>`)
			} else {
				b.WriteString(`<td><span class="status">active</span></td>`)
			}
			b.WriteString(`<td>`)
			if !u.Self {
				b.WriteString(`<form class="inline-form" action="/admin/users/` + strconv.FormatInt(u.ID, 10) + `/delete/" method="post">` + csrfField(csrf))
				b.WriteString(`<button type="submit" class="danger" data-confirm="Delete this account?">Delete</button></form>`)
			}
			b.WriteString(`</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
		b.WriteString(`<p class="hint">Add accounts with <code>inkpress adduser &lt;username&gt;</code>.</p>`)
		b.WriteString(`</main>`)
		writeFooter(b, cfg)
	})
}
