package views

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

var periods = []struct{ Value, Label string }{
	{"week", "Last 7 days"},
	{"month", "Last 30 days"},
	{"quarter", "Last 90 days"},
}

// AnalyticsPage renders the dashboard: site-wide top posts plus, when a post
// is selected, its view counts, daily distribution, quiz performance, and
// recent attempts.
func AnalyticsPage(cfg SiteConfig, summary *SummaryView, posts []PostOption, top []TopPostRow, attempts []AttemptRow, period, username, csrf string) templ.Component {
	return component(func(b *strings.Builder) {
		writeHead(b, cfg, PageMeta{Title: "Analytics"}, "")
		writeAdminHeader(b, cfg, username, csrf)
		b.WriteString(`<main class="wrap"><h1>Analytics</h1>`)

		b.WriteString(`<form class="analytics-filter" action="/admin/analytics/" method="get">`)
		b.WriteString(`<label>Post <select name="post">`)
		b.WriteString(`<option value="">— pick a post —</option>`)
		for _, p := range posts {
			sel := ""
			if p.Selected {
				sel = ` selected=""`
			}
			b.WriteString(`<option value="` + strconv.FormatInt(p.ID, 10) + `"` + sel + `>` + esc(p.Title) + `</option>`)
		}
		b.WriteString(`</select></label>`)
		b.WriteString(`<label>Period <select name="period">`)
		for _, p := range periods {
			sel := ""
			if p.Value == period {
				sel = ` selected=""`
			}
			b.WriteString(`<option value="` + p.Value + `"` + sel + `>` + p.Label + `</option>`)
		}
		b.WriteString(`</select></label>`)
		b.WriteString(`<button type="submit">Show</button></form>`)

		b.WriteString(`<section class="top-posts"><h2>Most viewed</h2>`)
		if len(top) == 0 {
			b.WriteString(`<p class="empty">No views recorded in this period.</p>`)
		} else {
			b.WriteString(`<table class="admin-table"><thead><tr><th>Post</th><th>Views</th></tr></thead><tbody>`)
			for _, row := range top {
				b.WriteString(`<tr><td>`)
				if row.Title != "" {
					b.WriteString(`<a href="` + esc(row.Link) + `">` + esc(row.Title) + `</a>`)
				} else {
					b.WriteString(`post #` + strconv.FormatInt(row.PostID, 10) + ` (deleted)`)
				}
				b.WriteString(`</td><td>` + strconv.Itoa(row.Views) + `</td></tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</section>`)

		if summary != nil {
			b.WriteString(`<section class="post-summary-panel">`)
			b.WriteString(`<h2>` + esc(summary.PostTitle) + `</h2>`)
			b.WriteString(`<p class="period">` + esc(summary.Period) + ` · ` + strconv.Itoa(summary.ViewCount) + ` views</p>`)

			b.WriteString(`<div class="day-bars">`)
			for _, d := range summary.Days {
				b.WriteString(`<div class="day-row"><span class="day-date">` + esc(d.Date) + `</span>`)
				b.WriteString(`<span class="day-bar" style="width: ` + strconv.Itoa(d.Percent) + `%"></span>`)
				b.WriteString(`<span class="day-count">` + strconv.Itoa(d.Views) + `</span></div>`)
			}
			b.WriteString(`</div>`)

			b.WriteString(`<h3>Quizzes</h3>`)
			if len(summary.Quizzes) == 0 {
				b.WriteString(`<p class="empty">No quiz attempts in this period.</p>`)
			} else {
				b.WriteString(`<table class="admin-table"><thead><tr><th>Quiz</th><th>Attempts</th><th>Correct</th><th>Success</th></tr></thead><tbody>`)
				for _, q := range summary.Quizzes {
					label := q.Question
					if label == "" {
						label = "quiz #" + strconv.FormatInt(q.QuizID, 10)
					}
					b.WriteString(`<tr><td>` + esc(label) + `</td>`)
					b.WriteString(`<td>` + strconv.Itoa(q.Attempts) + `</td>`)
					b.WriteString(`<td>` + strconv.Itoa(q.Correct) + `</td>`)
					b.WriteString(`<td>` + esc(q.RatePct) + `</td></tr>`)
				}
				b.WriteString(`</tbody></table>`)
			}

			b.WriteString(`<h3>Recent attempts</h3>`)
			if len(attempts) == 0 {
				b.WriteString(`<p class="empty">None yet.</p>`)
			} else {
				b.WriteString(`<table class="admin-table"><thead><tr><th>When</th><th>Quiz</th><th>Answer</th><th></th></tr></thead><tbody>`)
				for _, a := range attempts {
					label := a.Question
					if label == "" {
						label = "quiz #" + strconv.FormatInt(a.QuizID, 10)
					}
					b.WriteString(`<tr><td>` + esc(a.When) + `</td><td>` + esc(label) + `</td><td>` + esc(a.Answer) + `</td>`)
					if a.Correct {
						b.WriteString(`<td><span class="status status-published">correct</span></td>`)
					} else {
						b.WriteString(`<td><span class="status status-draft">incorrect</span></td>`)
					}
					b.WriteString(`</tr>`)
				}
				b.WriteString(`</tbody></table>`)
			}
			b.WriteString(`</section>`)
		}

		b.WriteString(`</main>`)
		writeFooter(b, cfg)
	})
}
