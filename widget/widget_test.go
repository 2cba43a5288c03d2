package widget

import (
	"encoding/json"
	"errors"
	"html"
	"regexp"
	"strings"
	"testing"

	"github.com/eringen/inkpress/shortcode"
)

type fakeSource struct {
	quizzes map[int64]*Quiz
	charts  map[int64]*Chart
	videos  map[int64]*Video
	pdfs    map[int64]*PDF
}

func (f *fakeSource) Quiz(id int64) (*Quiz, error) {
	if q, ok := f.quizzes[id]; ok {
		return q, nil
	}
	return nil, ErrNotFound
}

func (f *fakeSource) Chart(id int64) (*Chart, error) {
	if c, ok := f.charts[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (f *fakeSource) Video(id int64) (*Video, error) {
	if v, ok := f.videos[id]; ok {
		return v, nil
	}
	return nil, ErrNotFound
}

func (f *fakeSource) PDF(id int64) (*PDF, error) {
	if p, ok := f.pdfs[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func TestQuizValidate(t *testing.T) {
	tests := []struct {
		name    string
		quiz    Quiz
		wantErr bool
	}{
		{"valid multiple choice", Quiz{Question: "Q?", Kind: MultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "a"}, false},
		{"answer not among options", Quiz{Question: "Q?", Kind: MultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "c"}, true},
		{"single option", Quiz{Question: "Q?", Kind: MultipleChoice, Options: []string{"a"}, CorrectAnswer: "a"}, true},
		{"empty question", Quiz{Question: "  ", Kind: MultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "a"}, true},
		{"valid true/false", Quiz{Question: "Q?", Kind: TrueFalse, CorrectAnswer: "true"}, false},
		{"true/false case insensitive", Quiz{Question: "Q?", Kind: TrueFalse, CorrectAnswer: "False"}, false},
		{"true/false garbage answer", Quiz{Question: "Q?", Kind: TrueFalse, CorrectAnswer: "maybe"}, true},
		{"unknown kind", Quiz{Question: "Q?", Kind: "essay", CorrectAnswer: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quiz.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.wantErr && err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestChartValidate(t *testing.T) {
	tests := []struct {
		name    string
		chart   Chart
		wantErr bool
	}{
		{"valid", Chart{Labels: []string{"a", "b"}, Series: []Series{{"one", []float64{1, 2}}}}, false},
		{"two series", Chart{Labels: []string{"a"}, Series: []Series{{"one", []float64{1}}, {"two", []float64{2}}}}, false},
		{"length mismatch", Chart{Labels: []string{"a", "b"}, Series: []Series{{"one", []float64{1}}}}, true},
		{"no labels", Chart{Series: []Series{{"one", nil}}}, true},
		{"no series", Chart{Labels: []string{"a"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chart.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestQuizRenderMultipleChoice(t *testing.T) {
	q := &Quiz{ID: 5, Question: "Capital of France?", Kind: MultipleChoice,
		Options: []string{"Paris", "Rome", "Berlin"}, CorrectAnswer: "Paris"}
	got, err := q.RenderHTML()
	if err != nil {
		t.Fatalf("RenderHTML() error: %v", err)
	}
	for _, want := range []string{
		`action="/api/quiz/5/attempt"`,
		`data-quiz-id="5"`,
		"Capital of France?",
		`value="Paris"`,
		`value="Rome"`,
		`value="Berlin"`,
		`type="radio"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("fragment missing %q: %q", want, got)
		}
	}
}

func TestQuizRenderTrueFalse(t *testing.T) {
	q := &Quiz{ID: 2, Question: "Go has classes.", Kind: TrueFalse, CorrectAnswer: "false"}
	got, err := q.RenderHTML()
	if err != nil {
		t.Fatalf("RenderHTML() error: %v", err)
	}
	if !strings.Contains(got, `value="True"`) || !strings.Contains(got, `value="False"`) {
		t.Errorf("true/false fragment missing binary choices: %q", got)
	}
	if count := strings.Count(got, "<input"); count != 2 {
		t.Errorf("true/false fragment has %d inputs, want 2", count)
	}
}

func TestQuizRenderIndependentOfCorrectAnswer(t *testing.T) {
	a := &Quiz{ID: 1, Question: "Q?", Kind: MultipleChoice, Options: []string{"x", "y"}, CorrectAnswer: "x"}
	b := &Quiz{ID: 1, Question: "Q?", Kind: MultipleChoice, Options: []string{"x", "y"}, CorrectAnswer: "y"}
	fa, err := a.RenderHTML()
	if err != nil {
		t.Fatalf("RenderHTML() error: %v", err)
	}
	fb, err := b.RenderHTML()
	if err != nil {
		t.Fatalf("RenderHTML() error: %v", err)
	}
	if fa != fb {
		t.Errorf("fragment depends on the correct answer:\n%q\n%q", fa, fb)
	}
}

func TestQuizRenderEscapesMarkup(t *testing.T) {
	q := &Quiz{ID: 3, Question: `<script>leak()</script>?`, Kind: MultipleChoice,
		Options: []string{`<b>one</b>`, "two"}, CorrectAnswer: "two"}
	got, err := q.RenderHTML()
	if err != nil {
		t.Fatalf("RenderHTML() error: %v", err)
	}
	if strings.Contains(got, "<script>") || strings.Contains(got, "<b>") {
		t.Errorf("fragment kept raw markup: %q", got)
	}
}

func TestChartRenderEmbedsDataset(t *testing.T) {
	c := &Chart{ID: 9, Title: "Views", Labels: []string{"Mon", "Tue"},
		Series: []Series{{"2026", []float64{3, 7}}}}
	got, err := c.RenderHTML()
	if err != nil {
		t.Fatalf("RenderHTML() error: %v", err)
	}
	m := regexp.MustCompile(`data-chart="([^"]*)"`).FindStringSubmatch(got)
	if m == nil {
		t.Fatalf("fragment has no data-chart attribute: %q", got)
	}
	var payload struct {
		Title  string   `json:"title"`
		Labels []string `json:"labels"`
		Series []Series `json:"series"`
	}
	if err := json.Unmarshal([]byte(html.UnescapeString(m[1])), &payload); err != nil {
		t.Fatalf("embedded dataset is not valid JSON: %v", err)
	}
	if len(payload.Labels) != 2 || len(payload.Series) != 1 ||
		len(payload.Series[0].Points) != 2 || payload.Series[0].Points[1] != 7 {
		t.Errorf("embedded dataset = %+v, want original values", payload)
	}
}

func TestChartRenderMismatchedSeries(t *testing.T) {
	c := &Chart{ID: 9, Labels: []string{"a", "b", "c"},
		Series: []Series{{"short", []float64{1}}}}
	if _, err := c.RenderHTML(); !errors.Is(err, ErrInvalid) {
		t.Errorf("RenderHTML() error = %v, want ErrInvalid", err)
	}
}

func TestVideoRender(t *testing.T) {
	v := &Video{ID: 4, Title: "Demo", URL: "/uploads/demo.mp4"}
	got, err := v.RenderHTML()
	if err != nil {
		t.Fatalf("RenderHTML() error: %v", err)
	}
	if !strings.Contains(got, `src="/uploads/demo.mp4"`) || !strings.Contains(got, "<video") {
		t.Errorf("video fragment = %q", got)
	}
}

func TestPDFRender(t *testing.T) {
	p := &PDF{ID: 6, Title: "Slides", URL: "https://cdn.example.com/slides.pdf"}
	got, err := p.RenderHTML()
	if err != nil {
		t.Fatalf("RenderHTML() error: %v", err)
	}
	if !strings.Contains(got, "<embed") || !strings.Contains(got, "slides.pdf") {
		t.Errorf("pdf fragment = %q", got)
	}
	if !strings.Contains(got, "Slides") {
		t.Errorf("pdf fragment missing title: %q", got)
	}
}

func TestMediaRenderRejectsUnsafeURLs(t *testing.T) {
	tests := []string{"javascript:alert(1)", "data:text/html;base64,x", "", "  "}
	for _, u := range tests {
		v := &Video{ID: 1, URL: u}
		if _, err := v.RenderHTML(); err == nil {
			t.Errorf("video RenderHTML(%q) = nil error, want ErrInvalid", u)
		}
		p := &PDF{ID: 1, URL: u}
		if _, err := p.RenderHTML(); err == nil {
			t.Errorf("pdf RenderHTML(%q) = nil error, want ErrInvalid", u)
		}
	}
}

func TestRenderMissingWidgetReturnsPlaceholder(t *testing.T) {
	src := &fakeSource{}
	for _, kind := range []shortcode.Kind{shortcode.KindQuiz, shortcode.KindChart, shortcode.KindVideo, shortcode.KindPDF} {
		got := Render(src, shortcode.Ref{Kind: kind, ID: 99})
		if got != Placeholder {
			t.Errorf("Render(%s) = %q, want placeholder", kind, got)
		}
	}
}

func TestRenderInvalidWidgetReturnsPlaceholder(t *testing.T) {
	src := &fakeSource{charts: map[int64]*Chart{
		9: {ID: 9, Labels: []string{"a", "b"}, Series: []Series{{"bad", []float64{1}}}},
	}}
	got := Render(src, shortcode.Ref{Kind: shortcode.KindChart, ID: 9})
	if got != Placeholder {
		t.Errorf("Render(invalid chart) = %q, want placeholder", got)
	}
}
