// Package widget defines the interactive widget entities that shortcode
// markers reference (quizzes, charts, videos, PDFs) and renders them into
// sanitized HTML fragments for post pages.
package widget

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Source implementations when a widget id
	// does not resolve.
	ErrNotFound = errors.New("widget not found")

	// ErrInvalid marks a widget definition that violates one of its
	// invariants. Render paths degrade it to the placeholder; write paths
	// surface it to the editor.
	ErrInvalid = errors.New("invalid widget")
)

// QuizKind selects how a quiz is answered.
type QuizKind string

const (
	MultipleChoice QuizKind = "multiple_choice"
	TrueFalse      QuizKind = "true_false"
)

// Quiz is a question embedded in a post. The correct answer is stored with
// the definition and must never appear in rendered output.
type Quiz struct {
	ID            int64
	PostID        int64
	Question      string
	Kind          QuizKind
	Options       []string
	CorrectAnswer string
}

// Validate checks the quiz invariants: a non-empty question, and a correct
// answer that is one of the options (multiple-choice) or true/false.
func (q *Quiz) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("quiz question is empty: %w", ErrInvalid)
	}
	switch q.Kind {
	case MultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("quiz needs at least two options: %w", ErrInvalid)
		}
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				return nil
			}
		}
		return fmt.Errorf("correct answer is not among the options: %w", ErrInvalid)
	case TrueFalse:
		switch strings.ToLower(strings.TrimSpace(q.CorrectAnswer)) {
		case "true", "false":
			return nil
		}
		return fmt.Errorf("true/false answer must be true or false: %w", ErrInvalid)
	default:
		return fmt.Errorf("unknown quiz kind %q: %w", q.Kind, ErrInvalid)
	}
}

// answerOptions returns the choices shown to the reader, in display order.
func (q *Quiz) answerOptions() []string {
	if q.Kind == TrueFalse {
		return []string{"True", "False"}
	}
	return q.Options
}

// Series is one named line of chart data.
type Series struct {
	Name   string    `json:"name"`
	Points []float64 `json:"points"`
}

// Chart is a labelled dataset rendered client-side from embedded JSON.
type Chart struct {
	ID     int64
	PostID int64
	Title  string
	Labels []string
	Series []Series
}

// Validate checks that the chart has labels and that every series has
// exactly one point per label.
func (c *Chart) Validate() error {
	if len(c.Labels) == 0 {
		return fmt.Errorf("chart has no labels: %w", ErrInvalid)
	}
	if len(c.Series) == 0 {
		return fmt.Errorf("chart has no series: %w", ErrInvalid)
	}
	for _, s := range c.Series {
		if len(s.Points) != len(c.Labels) {
			return fmt.Errorf("series %q has %d points for %d labels: %w",
				s.Name, len(s.Points), len(c.Labels), ErrInvalid)
		}
	}
	return nil
}

// Video references an uploaded or external video file.
type Video struct {
	ID     int64
	PostID int64
	Title  string
	URL    string
}

// PDF references an uploaded or external PDF document.
type PDF struct {
	ID     int64
	PostID int64
	Title  string
	URL    string
}

// Source resolves widget definitions by id. Implementations return an error
// wrapping ErrNotFound when the id does not resolve.
type Source interface {
	Quiz(id int64) (*Quiz, error)
	Chart(id int64) (*Chart, error)
	Video(id int64) (*Video, error)
	PDF(id int64) (*PDF, error)
}
