package shortcode

import (
	"strings"
	"testing"
)

func TestParseSingleMarker(t *testing.T) {
	segs := Parse("Intro text [quiz id=5] more text")
	if len(segs) != 3 {
		t.Fatalf("Parse returned %d segments, want 3", len(segs))
	}
	if segs[0].Literal != "Intro text " {
		t.Errorf("segment 0 = %q, want %q", segs[0].Literal, "Intro text ")
	}
	if !segs[1].IsRef() || segs[1].Ref.Kind != KindQuiz || segs[1].Ref.ID != 5 {
		t.Errorf("segment 1 = %+v, want quiz ref with id 5", segs[1])
	}
	if segs[2].Literal != " more text" {
		t.Errorf("segment 2 = %q, want %q", segs[2].Literal, " more text")
	}
}

func TestParseMarkersInDocumentOrder(t *testing.T) {
	body := "[quiz id=1] a [chart id=22] b [video id=3] c [pdf id=44]"
	segs := Parse(body)
	want := []Ref{
		{KindQuiz, 1},
		{KindChart, 22},
		{KindVideo, 3},
		{KindPDF, 44},
	}
	var got []Ref
	for _, s := range segs {
		if s.IsRef() {
			got = append(got, *s.Ref)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("Parse found %d refs, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ref %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseMalformedMarkersStayLiteral(t *testing.T) {
	tests := []string{
		"[quiz id=]",
		"[quiz id=abc]",
		"[poll id=3]",
		"[quiz id = 5]",
		"[QUIZ id=5]",
		"[quiz  id=5]",
		"[quiz id=5",
		"quiz id=5]",
		"[quiz id=0]",
		"[chart id=-2]",
	}
	for _, input := range tests {
		segs := Parse(input)
		if len(segs) != 1 {
			t.Errorf("Parse(%q) returned %d segments, want 1 literal", input, len(segs))
			continue
		}
		if segs[0].IsRef() {
			t.Errorf("Parse(%q) produced a ref, want literal passthrough", input)
			continue
		}
		if segs[0].Literal != input {
			t.Errorf("Parse(%q) literal = %q, want byte-for-byte passthrough", input, segs[0].Literal)
		}
	}
}

func TestParseOverflowIDStaysLiteral(t *testing.T) {
	input := "[quiz id=99999999999999999999]"
	segs := Parse(input)
	if len(segs) != 1 || segs[0].Literal != input {
		t.Errorf("Parse(%q) = %+v, want single literal", input, segs)
	}
}

func TestParsePlainText(t *testing.T) {
	segs := Parse("no markers here at all")
	if len(segs) != 1 || segs[0].IsRef() {
		t.Fatalf("Parse plain text = %+v, want single literal", segs)
	}
}

func TestParseEmptyBody(t *testing.T) {
	if segs := Parse(""); len(segs) != 0 {
		t.Errorf("Parse(\"\") returned %d segments, want 0", len(segs))
	}
}

func TestParseAdjacentMarkers(t *testing.T) {
	segs := Parse("[quiz id=1][chart id=2]")
	if len(segs) != 2 {
		t.Fatalf("Parse returned %d segments, want 2", len(segs))
	}
	for i, s := range segs {
		if !s.IsRef() {
			t.Errorf("segment %d is literal %q, want ref", i, s.Literal)
		}
	}
}

func TestParseMarkerAtBounds(t *testing.T) {
	segs := Parse("[video id=7] tail")
	if len(segs) != 2 || !segs[0].IsRef() {
		t.Fatalf("marker at start: %+v", segs)
	}
	segs = Parse("head [pdf id=8]")
	if len(segs) != 2 || !segs[1].IsRef() {
		t.Fatalf("marker at end: %+v", segs)
	}
}

func TestParseLeadingZeroID(t *testing.T) {
	segs := Parse("[quiz id=007]")
	if len(segs) != 1 || !segs[0].IsRef() {
		t.Fatalf("Parse leading-zero id = %+v, want single ref", segs)
	}
	if segs[0].Ref.ID != 7 {
		t.Errorf("ref id = %d, want 7", segs[0].Ref.ID)
	}
}

func TestParseRoundTrip(t *testing.T) {
	body := "a [quiz id=3] b [bogus id=9] c [chart id=12]"
	var sb strings.Builder
	for _, s := range Parse(body) {
		if s.IsRef() {
			sb.WriteString(s.Ref.Marker())
		} else {
			sb.WriteString(s.Literal)
		}
	}
	if sb.String() != body {
		t.Errorf("round trip = %q, want %q", sb.String(), body)
	}
}

func TestRefMarker(t *testing.T) {
	tests := []struct {
		ref  Ref
		want string
	}{
		{Ref{KindQuiz, 5}, "[quiz id=5]"},
		{Ref{KindChart, 120}, "[chart id=120]"},
		{Ref{KindPDF, 1}, "[pdf id=1]"},
	}
	for _, tt := range tests {
		if got := tt.ref.Marker(); got != tt.want {
			t.Errorf("Marker() = %q, want %q", got, tt.want)
		}
	}
}
