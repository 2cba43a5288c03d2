package analytics

import (
	"reflect"
	"testing"
	"time"
)

func TestSummarizeZeroViews(t *testing.T) {
	s := setupTestStore(t)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)

	got, err := s.Summarize(42, nil, from, to)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if got.ViewCount != 0 {
		t.Errorf("ViewCount = %d, want 0", got.ViewCount)
	}
	// A zero-view summary still spans the whole range, one bucket per day.
	if len(got.ViewsByDay) != 7 {
		t.Fatalf("bucket count = %d, want 7", len(got.ViewsByDay))
	}
	for i, b := range got.ViewsByDay {
		if b.Views != 0 {
			t.Errorf("bucket[%d] views = %d, want 0", i, b.Views)
		}
	}
	if got.ViewsByDay[0].Date != "2026-01-01" {
		t.Errorf("first bucket = %q, want 2026-01-01", got.ViewsByDay[0].Date)
	}
	if got.ViewsByDay[6].Date != "2026-01-07" {
		t.Errorf("last bucket = %q, want 2026-01-07", got.ViewsByDay[6].Date)
	}
	if len(got.QuizStats) != 0 {
		t.Errorf("QuizStats = %v, want empty", got.QuizStats)
	}
}

func TestSummarizeBucketsAndGaps(t *testing.T) {
	s := setupTestStore(t)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	// Two views on the 1st, one on the 3rd, nothing elsewhere.
	mustSaveView(t, s, 1, "a", time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	mustSaveView(t, s, 1, "b", time.Date(2026, 1, 1, 20, 30, 0, 0, time.UTC))
	mustSaveView(t, s, 1, "a", time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC))
	// Different post and out-of-range rows must not leak in.
	mustSaveView(t, s, 2, "a", time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC))
	mustSaveView(t, s, 1, "a", time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC))

	got, err := s.Summarize(1, nil, from, to)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if got.ViewCount != 3 {
		t.Errorf("ViewCount = %d, want 3", got.ViewCount)
	}

	want := []ViewBucket{
		{Date: "2026-01-01", Views: 2},
		{Date: "2026-01-02", Views: 0},
		{Date: "2026-01-03", Views: 1},
		{Date: "2026-01-04", Views: 0},
		{Date: "2026-01-05", Views: 0},
	}
	if !reflect.DeepEqual(got.ViewsByDay, want) {
		t.Errorf("ViewsByDay = %v, want %v", got.ViewsByDay, want)
	}
}

func TestSummarizeQuizStats(t *testing.T) {
	s := setupTestStore(t)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	// Quiz 1: three attempts, two correct.
	mustSaveAttempt(t, s, 1, 5, true, day)
	mustSaveAttempt(t, s, 1, 5, true, day.Add(time.Minute))
	mustSaveAttempt(t, s, 1, 5, false, day.Add(2*time.Minute))
	// Quiz 2: a single correct attempt.
	mustSaveAttempt(t, s, 2, 5, true, day)
	// Quiz 3: a single incorrect attempt.
	mustSaveAttempt(t, s, 3, 5, false, day)

	got, err := s.Summarize(5, []int64{1, 2, 3}, from, to)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if len(got.QuizStats) != 3 {
		t.Fatalf("QuizStats count = %d, want 3", len(got.QuizStats))
	}

	q1 := got.QuizStats[0]
	if q1.QuizID != 1 || q1.Attempts != 3 || q1.Correct != 2 {
		t.Errorf("quiz 1 stats = %+v, want 3 attempts 2 correct", q1)
	}
	if q1.SuccessRate < 0.66 || q1.SuccessRate > 0.67 {
		t.Errorf("quiz 1 success rate = %v, want 2/3", q1.SuccessRate)
	}

	q2 := got.QuizStats[1]
	if q2.Attempts != 1 || q2.SuccessRate != 1.0 {
		t.Errorf("quiz 2 stats = %+v, want a single correct attempt with rate 1", q2)
	}

	q3 := got.QuizStats[2]
	if q3.Attempts != 1 || q3.Correct != 0 || q3.SuccessRate != 0 {
		t.Errorf("quiz 3 stats = %+v, want a single incorrect attempt with rate 0", q3)
	}
}

func TestSummarizeIncludesQuizzesWithoutAttempts(t *testing.T) {
	s := setupTestStore(t)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	// Quiz 1 has one correct attempt; quiz 2 exists but nobody has tried it.
	mustSaveAttempt(t, s, 1, 5, true, day)

	got, err := s.Summarize(5, []int64{1, 2}, from, to)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if len(got.QuizStats) != 2 {
		t.Fatalf("QuizStats count = %d, want 2: %+v", len(got.QuizStats), got.QuizStats)
	}
	q2 := got.QuizStats[1]
	if q2.QuizID != 2 || q2.Attempts != 0 || q2.Correct != 0 || q2.SuccessRate != 0 {
		t.Errorf("untried quiz stats = %+v, want zero attempts and rate 0", q2)
	}
}

func TestSummarizeKeepsStatsForDeletedQuizzes(t *testing.T) {
	s := setupTestStore(t)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	// Quiz 7 was deleted after collecting attempts; only quiz 2 survives.
	mustSaveAttempt(t, s, 7, 5, false, day)

	got, err := s.Summarize(5, []int64{2}, from, to)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if len(got.QuizStats) != 2 {
		t.Fatalf("QuizStats count = %d, want 2: %+v", len(got.QuizStats), got.QuizStats)
	}
	if got.QuizStats[0].QuizID != 2 || got.QuizStats[0].Attempts != 0 {
		t.Errorf("surviving quiz stats = %+v, want zero attempts", got.QuizStats[0])
	}
	if got.QuizStats[1].QuizID != 7 || got.QuizStats[1].Attempts != 1 {
		t.Errorf("deleted quiz stats = %+v, want its one recorded attempt", got.QuizStats[1])
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	s := setupTestStore(t)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	mustSaveView(t, s, 9, "a", day)
	mustSaveAttempt(t, s, 4, 9, true, day)

	first, err := s.Summarize(9, []int64{4}, from, to)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	second, err := s.Summarize(9, []int64{4}, from, to)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Summarize differs:\n%+v\n%+v", first, second)
	}
}

func TestFillDailyBuckets(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	sparse := map[string]int{"2026-05-02": 7}

	got := fillDailyBuckets(sparse, from, to)
	want := []ViewBucket{
		{Date: "2026-05-01", Views: 0},
		{Date: "2026-05-02", Views: 7},
		{Date: "2026-05-03", Views: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fillDailyBuckets = %v, want %v", got, want)
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		period string
		want   int
	}{
		{"week", 7},
		{"month", 30},
		{"quarter", 90},
		{"", 30},
		{"bogus", 30},
	}

	for _, tt := range tests {
		if got := ParsePeriod(tt.period); got != tt.want {
			t.Errorf("ParsePeriod(%q) = %d, want %d", tt.period, got, tt.want)
		}
	}
}

func TestCalcTimeRange(t *testing.T) {
	from, to := CalcTimeRange(7)

	if !from.Before(to) {
		t.Fatalf("from %v should precede to %v", from, to)
	}
	if from.Hour() != 0 || from.Minute() != 0 {
		t.Errorf("from should sit on a day boundary, got %v", from)
	}
	if got := int(to.Sub(from).Hours() / 24); got != 8 {
		// Seven past days plus today.
		t.Errorf("range spans %d days, want 8", got)
	}
	if !to.After(time.Now().UTC()) {
		t.Errorf("to %v should include the rest of today", to)
	}
}
