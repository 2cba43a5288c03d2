package widget

import (
	"strings"
	"testing"
)

func newTestPipeline() *Pipeline {
	src := &fakeSource{
		quizzes: map[int64]*Quiz{
			5: {ID: 5, PostID: 1, Question: "Capital of France?", Kind: MultipleChoice,
				Options: []string{"Paris", "Rome"}, CorrectAnswer: "Paris"},
		},
		videos: map[int64]*Video{
			7: {ID: 7, PostID: 1, URL: "/uploads/demo.mp4"},
		},
	}
	return NewPipeline(src)
}

func TestRenderPostEndToEnd(t *testing.T) {
	p := newTestPipeline()
	got := p.RenderPost("Intro text [quiz id=5] more text [chart id=9]")

	intro := strings.Index(got, "Intro text")
	form := strings.Index(got, `action="/api/quiz/5/attempt"`)
	more := strings.Index(got, "more text")
	missing := strings.Index(got, Placeholder)
	if intro < 0 || form < 0 || more < 0 || missing < 0 {
		t.Fatalf("RenderPost missing expected parts: %q", got)
	}
	if !(intro < form && form < more && more < missing) {
		t.Errorf("RenderPost parts out of document order: %q", got)
	}
	if strings.Contains(got, "[quiz id=5]") || strings.Contains(got, "[chart id=9]") {
		t.Errorf("RenderPost left raw markers in output: %q", got)
	}
}

func TestRenderPostIdempotent(t *testing.T) {
	p := newTestPipeline()
	body := "<p>Some <strong>rich</strong> text</p> [quiz id=5] tail [video id=7]"
	first := p.RenderPost(body)
	second := p.RenderPost(body)
	if first != second {
		t.Errorf("RenderPost not deterministic:\nfirst  %q\nsecond %q", first, second)
	}
}

func TestRenderPostSanitizesLiterals(t *testing.T) {
	p := newTestPipeline()
	got := p.RenderPost(`before <script>steal()</script> after [quiz id=5]`)
	if strings.Contains(got, "steal") {
		t.Errorf("RenderPost kept script content: %q", got)
	}
	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("RenderPost dropped literal text: %q", got)
	}
}

func TestRenderPostKeepsRichText(t *testing.T) {
	p := newTestPipeline()
	got := p.RenderPost("<p>One <strong>two</strong></p>")
	if !strings.Contains(got, "<strong>two</strong>") {
		t.Errorf("RenderPost dropped allowed markup: %q", got)
	}
}

func TestRenderPostMalformedMarkerPassthrough(t *testing.T) {
	p := newTestPipeline()
	got := p.RenderPost("keep [quiz id=x] and [poll id=2] as text")
	if !strings.Contains(got, "[quiz id=x]") || !strings.Contains(got, "[poll id=2]") {
		t.Errorf("RenderPost mangled malformed markers: %q", got)
	}
}

func TestRenderPostFragmentSanitized(t *testing.T) {
	src := &fakeSource{quizzes: map[int64]*Quiz{
		1: {ID: 1, Question: `Tricky <img src=x onerror=alert(1)> question`, Kind: TrueFalse, CorrectAnswer: "true"},
	}}
	got := NewPipeline(src).RenderPost("[quiz id=1]")
	if strings.Contains(got, "onerror") {
		t.Errorf("RenderPost fragment kept dangerous attribute: %q", got)
	}
	if !strings.Contains(got, "question") {
		t.Errorf("RenderPost lost question text: %q", got)
	}
}

func TestRenderPostEmptyBody(t *testing.T) {
	p := newTestPipeline()
	if got := p.RenderPost(""); got != "" {
		t.Errorf("RenderPost(\"\") = %q, want empty", got)
	}
}

func TestRenderPostVideo(t *testing.T) {
	p := newTestPipeline()
	got := p.RenderPost("watch this: [video id=7]")
	if !strings.Contains(got, "<video") || !strings.Contains(got, "/uploads/demo.mp4") {
		t.Errorf("RenderPost video fragment = %q", got)
	}
}
