package inkpress

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpress/analytics"
	"github.com/eringen/inkpress/views"
)

// handleAnalyticsPage renders the engagement dashboard: most-viewed posts
// site-wide plus, when a post is selected, its summary for the chosen period.
func (a *App) handleAnalyticsPage(c echo.Context) error {
	period := c.QueryParam("period")
	if period == "" {
		period = "month"
	}
	days := analytics.ParsePeriod(period)
	from, to := analytics.CalcTimeRange(days)

	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	titles := make(map[int64]Post, len(posts))
	for _, p := range posts {
		titles[p.ID] = p
	}

	selectedID, _ := strconv.ParseInt(c.QueryParam("post"), 10, 64)
	options := make([]views.PostOption, 0, len(posts))
	for _, p := range posts {
		options = append(options, views.PostOption{ID: p.ID, Title: p.Title, Selected: p.ID == selectedID})
	}

	topStats, err := a.analyticsStore.TopPosts(from, to, 10)
	if err != nil {
		return err
	}
	top := make([]views.TopPostRow, 0, len(topStats))
	for _, st := range topStats {
		row := views.TopPostRow{PostID: st.PostID, Views: st.Views}
		if p, ok := titles[st.PostID]; ok {
			row.Title = p.Title
			row.Link = p.Link()
		}
		top = append(top, row)
	}

	var summaryView *views.SummaryView
	var attempts []views.AttemptRow
	if selectedID > 0 {
		post, err := a.Store.GetPost(selectedID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		questions := a.quizQuestions(selectedID)
		quizIDs := make([]int64, 0, len(questions))
		for id := range questions {
			quizIDs = append(quizIDs, id)
		}

		summary, err := a.analyticsStore.Summarize(selectedID, quizIDs, from, to)
		if err != nil {
			return err
		}
		summaryView = a.summaryView(post, summary, days)

		recent, err := a.analyticsStore.ListRecentAttempts(selectedID, 20)
		if err != nil {
			return err
		}
		for _, at := range recent {
			attempts = append(attempts, views.AttemptRow{
				QuizID:   at.QuizID,
				Question: questions[at.QuizID],
				Answer:   at.Answer,
				Correct:  at.Correct,
				When:     at.Timestamp.Format("2006-01-02 15:04"),
			})
		}
	}

	return Render(c, views.AnalyticsPage(a.viewConfig(), summaryView, options, top, attempts, period, CurrentUsername(c), CsrfToken(c)))
}

func (a *App) summaryView(post Post, summary *analytics.Summary, days int) *views.SummaryView {
	title := post.Title
	if title == "" {
		title = "post #" + strconv.FormatInt(summary.PostID, 10) + " (deleted)"
	}
	sv := &views.SummaryView{
		PostID:     summary.PostID,
		PostTitle:  title,
		Period:     summary.Period,
		PeriodDays: days,
		ViewCount:  summary.ViewCount,
	}

	maxViews := 0
	for _, b := range summary.ViewsByDay {
		if b.Views > maxViews {
			maxViews = b.Views
		}
	}
	for _, b := range summary.ViewsByDay {
		percent := 0
		if maxViews > 0 {
			percent = b.Views * 100 / maxViews
		}
		sv.Days = append(sv.Days, views.DayCount{Date: b.Date, Views: b.Views, Percent: percent})
	}

	questions := a.quizQuestions(summary.PostID)
	for _, q := range summary.QuizStats {
		sv.Quizzes = append(sv.Quizzes, views.QuizRow{
			QuizID:   q.QuizID,
			Question: questions[q.QuizID],
			Attempts: q.Attempts,
			Correct:  q.Correct,
			RatePct:  fmt.Sprintf("%.0f%%", q.SuccessRate*100),
		})
	}
	return sv
}

// quizQuestions maps the post's surviving quiz ids to their question text.
// Attempts against deleted quizzes simply have no label.
func (a *App) quizQuestions(postID int64) map[int64]string {
	questions := make(map[int64]string)
	quizzes, err := a.Store.ListQuizzesForPost(postID)
	if err != nil {
		return questions
	}
	for _, q := range quizzes {
		questions[q.ID] = q.Question
	}
	return questions
}
