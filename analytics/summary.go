package analytics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ParsePeriod maps a period keyword to a day count. Unknown values fall back
// to a month.
func ParsePeriod(period string) int {
	switch period {
	case "week":
		return 7
	case "quarter":
		return 90
	default:
		return 30
	}
}

// CalcTimeRange returns the UTC [from, to) window covering the last days
// full days plus today.
func CalcTimeRange(days int) (time.Time, time.Time) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -days).Truncate(24 * time.Hour)
	to := now.Add(24 * time.Hour).Truncate(24 * time.Hour)
	return from, to
}

// Summarize aggregates views and quiz outcomes for a post over [from, to).
// The three queries are independent, so they run concurrently. quizIDs names
// the post's current quizzes: each gets a stat row even with zero attempts in
// range, so a quiz nobody has tried yet still shows up with a 0 rate.
func (s *Store) Summarize(postID int64, quizIDs []int64, from, to time.Time) (*Summary, error) {
	summary := &Summary{
		PostID: postID,
		Period: fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02")),
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	wg.Add(3)

	go func() {
		defer wg.Done()
		count, err := s.countViews(postID, from, to)
		if err != nil {
			setErr(err)
			return
		}
		mu.Lock()
		summary.ViewCount = count
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		daily, err := s.dailyViews(postID, from, to)
		if err != nil {
			setErr(err)
			return
		}
		mu.Lock()
		summary.ViewsByDay = fillDailyBuckets(daily, from, to)
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		stats, err := s.quizStats(postID, from, to)
		if err != nil {
			setErr(err)
			return
		}
		mu.Lock()
		summary.QuizStats = stats
		mu.Unlock()
	}()

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	summary.QuizStats = mergeQuizStats(summary.QuizStats, quizIDs)
	return summary, nil
}

// mergeQuizStats adds a zero row for every quiz id the attempt aggregation
// did not produce, then restores quiz-id order. Stats for quizzes absent from
// quizIDs (deleted quizzes with surviving attempts) are kept.
func mergeQuizStats(stats []QuizStat, quizIDs []int64) []QuizStat {
	present := make(map[int64]bool, len(stats))
	for _, st := range stats {
		present[st.QuizID] = true
	}
	for _, id := range quizIDs {
		if !present[id] {
			stats = append(stats, QuizStat{QuizID: id})
			present[id] = true
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].QuizID < stats[j].QuizID })
	return stats
}

func (s *Store) countViews(postID int64, from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM post_views
		WHERE post_id = ? AND timestamp >= ? AND timestamp < ?`,
		postID, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return count, nil
}

// dailyViews returns a sparse map of day (2006-01-02) to view count.
func (s *Store) dailyViews(postID int64, from, to time.Time) (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT DATE(timestamp) AS day, COUNT(*) AS views
		FROM post_views
		WHERE post_id = ? AND timestamp >= ? AND timestamp < ?
		GROUP BY day`,
		postID, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("daily views: %w", err)
	}
	defer rows.Close()

	daily := make(map[string]int)
	for rows.Next() {
		var day string
		var views int
		if err := rows.Scan(&day, &views); err != nil {
			return nil, fmt.Errorf("scan daily views: %w", err)
		}
		daily[day] = views
	}
	return daily, rows.Err()
}

// fillDailyBuckets expands a sparse day map into one bucket per day of the
// range, zero-filled, in chronological order.
func fillDailyBuckets(daily map[string]int, from, to time.Time) []ViewBucket {
	var buckets []ViewBucket
	for day := from.Truncate(24 * time.Hour); day.Before(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		buckets = append(buckets, ViewBucket{Date: key, Views: daily[key]})
	}
	return buckets
}

func (s *Store) quizStats(postID int64, from, to time.Time) ([]QuizStat, error) {
	rows, err := s.db.Query(`
		SELECT quiz_id, COUNT(*) AS attempts, SUM(correct) AS correct
		FROM quiz_attempts
		WHERE post_id = ? AND timestamp >= ? AND timestamp < ?
		GROUP BY quiz_id ORDER BY quiz_id`,
		postID, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("quiz stats: %w", err)
	}
	defer rows.Close()

	var stats []QuizStat
	for rows.Next() {
		var st QuizStat
		if err := rows.Scan(&st.QuizID, &st.Attempts, &st.Correct); err != nil {
			return nil, fmt.Errorf("scan quiz stat: %w", err)
		}
		if st.Attempts > 0 {
			st.SuccessRate = float64(st.Correct) / float64(st.Attempts)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
