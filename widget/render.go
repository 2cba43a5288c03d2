package widget

import (
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/eringen/inkpress/shortcode"
)

// Placeholder is emitted in place of any widget that is missing or invalid.
const Placeholder = `<div class="widget widget-unavailable"><p>This content is currently unavailable.</p></div>`

// Renderable is the shared render contract: each widget kind turns its
// definition into an HTML fragment for embedding in a post page.
type Renderable interface {
	RenderHTML() (string, error)
}

// Render resolves ref against src and renders it. A missing or invalid
// widget degrades to Placeholder; Render never fails, so one bad reference
// cannot take down the rest of the page.
func Render(src Source, ref shortcode.Ref) string {
	r, err := lookup(src, ref)
	if err != nil {
		return Placeholder
	}
	frag, err := r.RenderHTML()
	if err != nil {
		return Placeholder
	}
	return frag
}

func lookup(src Source, ref shortcode.Ref) (Renderable, error) {
	switch ref.Kind {
	case shortcode.KindQuiz:
		q, err := src.Quiz(ref.ID)
		if err != nil {
			return nil, err
		}
		return q, nil
	case shortcode.KindChart:
		c, err := src.Chart(ref.ID)
		if err != nil {
			return nil, err
		}
		return c, nil
	case shortcode.KindVideo:
		v, err := src.Video(ref.ID)
		if err != nil {
			return nil, err
		}
		return v, nil
	case shortcode.KindPDF:
		p, err := src.PDF(ref.ID)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, ErrNotFound
	}
}

// RenderHTML renders the quiz as a submittable form. The correct answer is
// deliberately absent: verdicts only ever come back from the attempt
// endpoint.
func (q *Quiz) RenderHTML() (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	id := strconv.FormatInt(q.ID, 10)
	var b strings.Builder
	b.WriteString(`<div class="widget widget-quiz" data-quiz-id="` + id + `">`)
	b.WriteString(`<form class="quiz-form" action="/api/quiz/` + id + `/attempt" method="post">`)
	b.WriteString(`<p class="quiz-question">` + html.EscapeString(q.Question) + `</p>`)
	for _, opt := range q.answerOptions() {
		escaped := html.EscapeString(opt)
		b.WriteString(`<label class="quiz-option"><input type="radio" name="answer" value="` + escaped + `" required=""/> ` + escaped + `</label>`)
	}
	b.WriteString(`<button type="submit">Check answer</button>`)
	b.WriteString(`<p class="quiz-result"></p>`)
	b.WriteString(`</form></div>`)
	return b.String(), nil
}

// RenderHTML embeds the chart dataset as JSON in a data attribute for the
// client script to draw. An inconsistent dataset renders nothing.
func (c *Chart) RenderHTML() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	payload, err := json.Marshal(struct {
		Title  string   `json:"title,omitempty"`
		Labels []string `json:"labels"`
		Series []Series `json:"series"`
	}{c.Title, c.Labels, c.Series})
	if err != nil {
		return "", err
	}
	id := strconv.FormatInt(c.ID, 10)
	var b strings.Builder
	b.WriteString(`<div class="widget widget-chart" data-chart-id="` + id + `" data-chart="` + html.EscapeString(string(payload)) + `">`)
	if c.Title != "" {
		b.WriteString(`<p class="chart-title">` + html.EscapeString(c.Title) + `</p>`)
	}
	b.WriteString(`<canvas class="chart-canvas" width="640" height="320"></canvas>`)
	b.WriteString(`</div>`)
	return b.String(), nil
}

// RenderHTML wraps the video location in a player element.
func (v *Video) RenderHTML() (string, error) {
	u := safeURL(v.URL)
	if u == "" {
		return "", fmt.Errorf("video %d has unusable URL %q: %w", v.ID, v.URL, ErrInvalid)
	}
	var b strings.Builder
	b.WriteString(`<div class="widget widget-video">`)
	b.WriteString(`<video class="widget-video-player" src="` + html.EscapeString(u) + `" controls="" preload="metadata"></video>`)
	if v.Title != "" {
		b.WriteString(`<p class="widget-caption">` + html.EscapeString(v.Title) + `</p>`)
	}
	b.WriteString(`</div>`)
	return b.String(), nil
}

// RenderHTML embeds the document inline with a download link below it.
func (p *PDF) RenderHTML() (string, error) {
	u := safeURL(p.URL)
	if u == "" {
		return "", fmt.Errorf("pdf %d has unusable URL %q: %w", p.ID, p.URL, ErrInvalid)
	}
	escaped := html.EscapeString(u)
	title := p.Title
	if title == "" {
		title = "Download PDF"
	}
	var b strings.Builder
	b.WriteString(`<div class="widget widget-pdf">`)
	b.WriteString(`<embed class="widget-pdf-frame" src="` + escaped + `" type="application/pdf" width="800" height="600"/>`)
	b.WriteString(`<p class="widget-caption"><a href="` + escaped + `" download="">` + html.EscapeString(title) + `</a></p>`)
	b.WriteString(`</div>`)
	return b.String(), nil
}

// safeURL accepts site-relative paths and http(s) URLs, rejecting anything
// else. Rejected URLs render as the placeholder further up.
func safeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return val
	default:
		return ""
	}
}
