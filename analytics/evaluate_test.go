package analytics

import (
	"errors"
	"testing"

	"github.com/eringen/inkpress/widget"
)

type fakeQuizzes map[int64]*widget.Quiz

func (f fakeQuizzes) Quiz(id int64) (*widget.Quiz, error) {
	q, ok := f[id]
	if !ok {
		return nil, widget.ErrNotFound
	}
	return q, nil
}

func setupEvaluator(t *testing.T) (*Evaluator, *Store) {
	t.Helper()

	s := setupTestStore(t)
	quizzes := fakeQuizzes{
		1: {
			ID:            1,
			PostID:        10,
			Question:      "Capital of France?",
			Kind:          widget.MultipleChoice,
			Options:       []string{"paris", "rome", "madrid"},
			CorrectAnswer: "paris",
		},
		2: {
			ID:            2,
			PostID:        10,
			Question:      "The sky is blue.",
			Kind:          widget.TrueFalse,
			CorrectAnswer: "true",
		},
	}
	return NewEvaluator(quizzes, s), s
}

func TestEvaluateCaseInsensitive(t *testing.T) {
	eval, _ := setupEvaluator(t)

	verdict, err := eval.Evaluate(1, "Paris", "visitor-a")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !verdict.Correct {
		t.Error("submitted Paris against stored paris, want correct")
	}
	if verdict.AttemptID == 0 {
		t.Error("verdict should carry the persisted attempt id")
	}
}

func TestEvaluateTrimsWhitespace(t *testing.T) {
	eval, _ := setupEvaluator(t)

	verdict, err := eval.Evaluate(1, "  paris \n", "visitor-a")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !verdict.Correct {
		t.Error("surrounding whitespace should not affect scoring")
	}
}

func TestEvaluateWrongAnswerRecorded(t *testing.T) {
	eval, s := setupEvaluator(t)

	verdict, err := eval.Evaluate(1, "rome", "visitor-a")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if verdict.Correct {
		t.Error("rome should be incorrect")
	}

	attempts, err := s.ListRecentAttempts(10, 10)
	if err != nil {
		t.Fatalf("ListRecentAttempts failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempt count = %d, want 1", len(attempts))
	}
	if attempts[0].Correct {
		t.Error("stored attempt should be incorrect")
	}
	if attempts[0].Answer != "rome" {
		t.Errorf("stored answer = %q, want %q", attempts[0].Answer, "rome")
	}
	if attempts[0].VisitorID != "visitor-a" {
		t.Errorf("stored visitor = %q, want %q", attempts[0].VisitorID, "visitor-a")
	}
}

func TestEvaluateEmptyAnswerRecordedIncorrect(t *testing.T) {
	eval, s := setupEvaluator(t)

	verdict, err := eval.Evaluate(1, "", "visitor-a")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if verdict.Correct {
		t.Error("empty answer should be incorrect")
	}

	attempts, err := s.ListRecentAttempts(10, 10)
	if err != nil {
		t.Fatalf("ListRecentAttempts failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Errorf("empty answers still count as attempts, got %d rows", len(attempts))
	}
}

func TestEvaluateNotFound(t *testing.T) {
	eval, s := setupEvaluator(t)

	_, err := eval.Evaluate(999, "paris", "visitor-a")
	if !errors.Is(err, widget.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	attempts, err := s.ListRecentAttempts(10, 10)
	if err != nil {
		t.Fatalf("ListRecentAttempts failed: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("no attempt should be recorded for an unknown quiz, got %d", len(attempts))
	}
}

func TestEvaluateEveryCallPersistsOneAttempt(t *testing.T) {
	eval, s := setupEvaluator(t)

	answers := []string{"paris", "rome", "", "PARIS", "madrid"}
	var ids []int64
	for _, a := range answers {
		verdict, err := eval.Evaluate(1, a, "visitor-a")
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", a, err)
		}
		ids = append(ids, verdict.AttemptID)
	}

	attempts, err := s.ListRecentAttempts(10, 50)
	if err != nil {
		t.Fatalf("ListRecentAttempts failed: %v", err)
	}
	if len(attempts) != len(answers) {
		t.Errorf("attempt rows = %d, want %d", len(attempts), len(answers))
	}

	seen := make(map[int64]bool)
	for _, id := range ids {
		if id == 0 || seen[id] {
			t.Errorf("attempt ids must be unique and nonzero, got %v", ids)
			break
		}
		seen[id] = true
	}
}

func TestEvaluateTrueFalse(t *testing.T) {
	eval, _ := setupEvaluator(t)

	verdict, err := eval.Evaluate(2, "TRUE", "visitor-a")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !verdict.Correct {
		t.Error("TRUE should match stored true")
	}

	verdict, err = eval.Evaluate(2, "False", "visitor-a")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if verdict.Correct {
		t.Error("False should not match stored true")
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		submitted string
		correct   string
		want      bool
	}{
		{"paris", "paris", true},
		{"Paris", "paris", true},
		{"PARIS", "paris", true},
		{" paris ", "paris", true},
		{"paris", " PARIS ", true},
		{"rome", "paris", false},
		{"", "paris", false},
		{"par is", "paris", false},
		{"true", "true", true},
		{"True", "true", true},
	}

	for _, tt := range tests {
		if got := Match(tt.submitted, tt.correct); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.submitted, tt.correct, got, tt.want)
		}
	}
}
