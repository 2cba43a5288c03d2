package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/eringen/inkpress/widget"
)

// QuizSource supplies quiz definitions for scoring. The content store
// implements it.
type QuizSource interface {
	Quiz(id int64) (*widget.Quiz, error)
}

// Evaluator scores submitted answers and records every attempt, correct or
// not. Scoring uses the quiz definition at submission time; later edits do
// not rewrite recorded outcomes.
type Evaluator struct {
	quizzes QuizSource
	store   *Store
}

// NewEvaluator creates an evaluator backed by the given quiz source and
// analytics store.
func NewEvaluator(quizzes QuizSource, store *Store) *Evaluator {
	return &Evaluator{quizzes: quizzes, store: store}
}

// Verdict is the scoring outcome returned to the submitting client.
type Verdict struct {
	Correct   bool  `json:"correct"`
	AttemptID int64 `json:"attempt_id"`
}

// Match reports whether a submitted answer matches the stored correct one.
// Comparison ignores case and surrounding whitespace; both quiz kinds score
// the same way.
func Match(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

// Evaluate scores answer against quiz quizID and returns the verdict. The
// attempt row is persisted before the verdict is returned, so an attempt
// exists for every response a client ever sees. Empty or garbage answers are
// recorded as incorrect attempts, not rejected; the only hard failure besides
// storage errors is widget.ErrNotFound for an unknown quiz id.
func (e *Evaluator) Evaluate(quizID int64, answer, visitorID string) (*Verdict, error) {
	quiz, err := e.quizzes.Quiz(quizID)
	if err != nil {
		return nil, err
	}

	attempt := &QuizAttempt{
		QuizID:    quiz.ID,
		PostID:    quiz.PostID,
		VisitorID: visitorID,
		Answer:    answer,
		Correct:   Match(answer, quiz.CorrectAnswer),
		Timestamp: time.Now().UTC(),
	}
	if err := e.store.SaveAttempt(attempt); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	return &Verdict{Correct: attempt.Correct, AttemptID: attempt.ID}, nil
}
