package analytics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpress/widget"
)

// QuizLister lists the quizzes attached to a post. The content store
// implements it; the summary endpoint needs it so quizzes without attempts
// still get a stat row.
type QuizLister interface {
	ListQuizzesForPost(postID int64) ([]widget.Quiz, error)
}

// Handler handles analytics HTTP requests.
type Handler struct {
	store          *Store
	eval           *Evaluator
	quizzes        QuizLister
	attemptLimiter *rateLimiter
}

// NewHandler creates a new analytics handler.
// The attempt endpoint is rate-limited to 30 requests per IP per minute.
func NewHandler(store *Store, eval *Evaluator, quizzes QuizLister) *Handler {
	return &Handler{
		store:          store,
		eval:           eval,
		quizzes:        quizzes,
		attemptLimiter: newRateLimiter(30, time.Minute),
	}
}

// Close stops the handler's background rate-limiter cleanup.
func (h *Handler) Close() {
	h.attemptLimiter.stop()
}

// AttemptRequest is the expected request body for the attempt endpoint.
// Both the rendered quiz form and JSON clients post the same field.
type AttemptRequest struct {
	Answer string `json:"answer" form:"answer"`
}

// maxAnswerLen caps submitted answer text. Longer bodies are rejected at the
// transport; no stored answer is ever longer than this.
const maxAnswerLen = 512

// SubmitAttempt scores a quiz answer and records the attempt.
// An empty or unparseable answer is still recorded, as incorrect.
func (h *Handler) SubmitAttempt(c echo.Context) error {
	// Rate limit by IP to keep one visitor from flooding the attempt log.
	if !h.attemptLimiter.allow(c.RealIP()) {
		return c.NoContent(http.StatusTooManyRequests)
	}

	quizID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || quizID < 1 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Quiz not found"})
	}

	var req AttemptRequest
	if err := c.Bind(&req); err != nil {
		req.Answer = c.FormValue("answer")
	}
	if len(req.Answer) > maxAnswerLen {
		return c.String(http.StatusBadRequest, "Invalid request")
	}

	verdict, err := h.eval.Evaluate(quizID, req.Answer, Visitor(c))
	if err != nil {
		if errors.Is(err, widget.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Quiz not found"})
		}
		c.Logger().Errorf("Failed to evaluate attempt: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, verdict)
}

// SummaryResponse is the JSON response for the summary endpoint.
type SummaryResponse struct {
	Summary    *Summary `json:"summary"`
	PeriodDays int      `json:"period_days"`
}

// GetSummary returns the aggregated engagement summary for one post as JSON.
func (h *Handler) GetSummary(c echo.Context) error {
	postID, err := strconv.ParseInt(c.QueryParam("post"), 10, 64)
	if err != nil || postID < 1 {
		return c.String(http.StatusBadRequest, "Invalid request")
	}

	days := ParsePeriod(c.QueryParam("period"))
	from, to := CalcTimeRange(days)

	quizzes, err := h.quizzes.ListQuizzesForPost(postID)
	if err != nil {
		c.Logger().Errorf("Failed to list quizzes for post %d: %v", postID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	quizIDs := make([]int64, 0, len(quizzes))
	for _, q := range quizzes {
		quizIDs = append(quizIDs, q.ID)
	}

	summary, err := h.store.Summarize(postID, quizIDs, from, to)
	if err != nil {
		c.Logger().Errorf("Failed to summarize post %d: %v", postID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, SummaryResponse{
		Summary:    summary,
		PeriodDays: days,
	})
}

// TopPostsResponse is the JSON response for the top posts endpoint.
type TopPostsResponse struct {
	Posts      []PostStat `json:"posts"`
	PeriodDays int        `json:"period_days"`
}

// GetTopPosts returns the most viewed posts over the period as JSON.
func (h *Handler) GetTopPosts(c echo.Context) error {
	days := ParsePeriod(c.QueryParam("period"))
	from, to := CalcTimeRange(days)

	limit := 10
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 50 {
		limit = l
	}

	posts, err := h.store.TopPosts(from, to, limit)
	if err != nil {
		c.Logger().Errorf("Failed to get top posts: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, TopPostsResponse{
		Posts:      posts,
		PeriodDays: days,
	})
}

// AttemptsResponse is the JSON response for the recent attempts endpoint.
type AttemptsResponse struct {
	Attempts []QuizAttempt `json:"attempts"`
}

// GetRecentAttempts returns the newest quiz attempts for one post as JSON.
func (h *Handler) GetRecentAttempts(c echo.Context) error {
	postID, err := strconv.ParseInt(c.QueryParam("post"), 10, 64)
	if err != nil || postID < 1 {
		return c.String(http.StatusBadRequest, "Invalid request")
	}

	limit := 20
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	attempts, err := h.store.ListRecentAttempts(postID, limit)
	if err != nil {
		c.Logger().Errorf("Failed to list attempts for post %d: %v", postID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, AttemptsResponse{Attempts: attempts})
}

// RegisterRoutes registers analytics routes with the Echo router.
func (h *Handler) RegisterRoutes(e *echo.Echo, authMiddleware echo.MiddlewareFunc) {
	// Public endpoint the rendered quiz forms post to
	e.POST("/api/quiz/:id/attempt", h.SubmitAttempt)

	// Admin API endpoints (JSON)
	admin := e.Group("/admin/analytics")
	admin.Use(authMiddleware)
	admin.GET("/api/summary", h.GetSummary)
	admin.GET("/api/top", h.GetTopPosts)
	admin.GET("/api/attempts", h.GetRecentAttempts)
}
