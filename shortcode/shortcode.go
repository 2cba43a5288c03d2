// Package shortcode parses the inline widget markers embedded in post bodies.
//
// A marker has the fixed form [kind id=N] where kind is one of quiz, chart,
// video or pdf and N is a positive integer, e.g. [quiz id=5]. Kind names are
// case-sensitive and the only whitespace allowed inside the brackets is the
// single space before id=.
package shortcode

import (
	"regexp"
	"strconv"
)

// Kind identifies which widget type a marker references.
type Kind string

const (
	KindQuiz  Kind = "quiz"
	KindChart Kind = "chart"
	KindVideo Kind = "video"
	KindPDF   Kind = "pdf"
)

// Ref is a parsed widget marker.
type Ref struct {
	Kind Kind
	ID   int64
}

// Marker returns the canonical marker text for r, e.g. "[quiz id=5]".
func (r Ref) Marker() string {
	return "[" + string(r.Kind) + " id=" + strconv.FormatInt(r.ID, 10) + "]"
}

// Segment is one span of a parsed body: literal text or a widget reference.
// Ref is nil for literal segments.
type Segment struct {
	Literal string
	Ref     *Ref
}

// IsRef reports whether the segment is a widget reference.
func (s Segment) IsRef() bool { return s.Ref != nil }

var reMarker = regexp.MustCompile(`\[(quiz|chart|video|pdf) id=([0-9]+)\]`)

// Parse scans body left to right and splits it into literal spans and widget
// references, in document order. Malformed markers (unknown kind, missing or
// non-positive id, stray whitespace) are left untouched inside the
// surrounding literal text. Parse never fails.
func Parse(body string) []Segment {
	if body == "" {
		return nil
	}
	matches := reMarker.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return []Segment{{Literal: body}}
	}
	segs := make([]Segment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		id, err := strconv.ParseInt(body[m[4]:m[5]], 10, 64)
		if err != nil || id == 0 {
			// Zero or out-of-range ids stay literal.
			continue
		}
		if m[0] > last {
			segs = append(segs, Segment{Literal: body[last:m[0]]})
		}
		segs = append(segs, Segment{Ref: &Ref{Kind: Kind(body[m[2]:m[3]]), ID: id}})
		last = m[1]
	}
	if last < len(body) {
		segs = append(segs, Segment{Literal: body[last:]})
	}
	return segs
}
