package inkpress

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpress/sanitize"
	"github.com/eringen/inkpress/shortcode"
	"github.com/eringen/inkpress/widget"
)

func quizMarker(id int64) string {
	return shortcode.Ref{Kind: shortcode.KindQuiz, ID: id}.Marker()
}

func chartMarker(id int64) string {
	return shortcode.Ref{Kind: shortcode.KindChart, ID: id}.Marker()
}

func videoMarker(id int64) string {
	return shortcode.Ref{Kind: shortcode.KindVideo, ID: id}.Marker()
}

func pdfMarker(id int64) string {
	return shortcode.Ref{Kind: shortcode.KindPDF, ID: id}.Marker()
}

// ownedPost loads the post a widget form targets and checks the signed-in
// user may edit it.
func (a *App) ownedPost(c echo.Context) (Post, error) {
	postID, err := strconv.ParseInt(c.FormValue("post_id"), 10, 64)
	if err != nil || postID < 1 {
		return Post{}, echo.NewHTTPError(http.StatusBadRequest, "post_id required")
	}
	post, err := a.Store.GetPost(postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, echo.NewHTTPError(http.StatusNotFound)
		}
		return Post{}, err
	}
	if !canEdit(c, post) {
		return Post{}, echo.NewHTTPError(http.StatusForbidden, "not your post")
	}
	return post, nil
}

// widgetPostID resolves which post a widget belongs to, so edits and deletes
// can be checked against the post the form claims to target.
func (a *App) widgetPostID(kind string, id int64) (int64, error) {
	switch kind {
	case "quiz":
		q, err := a.Store.Quiz(id)
		if err != nil {
			return 0, err
		}
		return q.PostID, nil
	case "chart":
		ch, err := a.Store.Chart(id)
		if err != nil {
			return 0, err
		}
		return ch.PostID, nil
	case "video":
		v, err := a.Store.Video(id)
		if err != nil {
			return 0, err
		}
		return v.PostID, nil
	case "pdf":
		p, err := a.Store.PDF(id)
		if err != nil {
			return 0, err
		}
		return p.PostID, nil
	}
	return 0, echo.NewHTTPError(http.StatusBadRequest, "unknown widget kind")
}

// requireWidgetOwner checks that widget kind/id hangs off the given post.
func (a *App) requireWidgetOwner(kind string, id, postID int64) error {
	owner, err := a.widgetPostID(kind, id)
	if err != nil {
		if errors.Is(err, widget.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	if owner != postID {
		return echo.NewHTTPError(http.StatusForbidden, "widget belongs to another post")
	}
	return nil
}

// formID reads the optional widget id: zero creates, nonzero edits in place.
func formID(c echo.Context) int64 {
	id, _ := strconv.ParseInt(c.FormValue("id"), 10, 64)
	if id < 0 {
		return 0
	}
	return id
}

func editorRedirect(c echo.Context, postID int64, msg string) error {
	return c.Redirect(http.StatusSeeOther,
		"/admin/post/"+strconv.FormatInt(postID, 10)+"/?msg="+url.QueryEscape(msg))
}

func (a *App) handleQuizCreate(c echo.Context) error {
	post, err := a.ownedPost(c)
	if err != nil {
		return err
	}

	kind := widget.QuizKind(c.FormValue("kind"))
	q := &widget.Quiz{
		ID:            formID(c),
		PostID:        post.ID,
		Question:      sanitize.Text(strings.TrimSpace(c.FormValue("question"))),
		Kind:          kind,
		CorrectAnswer: strings.TrimSpace(c.FormValue("correct_answer")),
	}
	if kind == widget.MultipleChoice {
		for _, line := range strings.Split(c.FormValue("options"), "\n") {
			if opt := strings.TrimSpace(line); opt != "" {
				q.Options = append(q.Options, opt)
			}
		}
	}

	// A nonzero id means the form is editing an existing quiz in place.
	if q.ID > 0 {
		if err := a.requireWidgetOwner("quiz", q.ID, post.ID); err != nil {
			return err
		}
		if err := a.Store.UpdateQuiz(q); err != nil {
			if errors.Is(err, widget.ErrInvalid) {
				return editorRedirect(c, post.ID, err.Error())
			}
			return err
		}
		return editorRedirect(c, post.ID, "Quiz updated.")
	}
	if err := a.Store.CreateQuiz(q); err != nil {
		if errors.Is(err, widget.ErrInvalid) {
			return editorRedirect(c, post.ID, err.Error())
		}
		return err
	}
	return editorRedirect(c, post.ID, "Quiz added. Insert "+quizMarker(q.ID)+" into the body.")
}

func (a *App) handleChartCreate(c echo.Context) error {
	post, err := a.ownedPost(c)
	if err != nil {
		return err
	}

	ch := &widget.Chart{
		ID:     formID(c),
		PostID: post.ID,
		Title:  sanitize.Text(strings.TrimSpace(c.FormValue("title"))),
		Labels: FilterEmpty(strings.Split(c.FormValue("labels"), ",")),
	}
	series, err := parseSeriesLines(c.FormValue("series"))
	if err != nil {
		return editorRedirect(c, post.ID, err.Error())
	}
	ch.Series = series

	if ch.ID > 0 {
		if err := a.requireWidgetOwner("chart", ch.ID, post.ID); err != nil {
			return err
		}
		if err := a.Store.UpdateChart(ch); err != nil {
			if errors.Is(err, widget.ErrInvalid) {
				return editorRedirect(c, post.ID, err.Error())
			}
			return err
		}
		return editorRedirect(c, post.ID, "Chart updated.")
	}
	if err := a.Store.CreateChart(ch); err != nil {
		if errors.Is(err, widget.ErrInvalid) {
			return editorRedirect(c, post.ID, err.Error())
		}
		return err
	}
	return editorRedirect(c, post.ID, "Chart added. Insert "+chartMarker(ch.ID)+" into the body.")
}

// parseSeriesLines reads one series per line in the form "Name: 1, 2, 3".
// A line without a colon is a nameless series of numbers.
func parseSeriesLines(raw string) ([]widget.Series, error) {
	var series []widget.Series
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name := ""
		values := line
		if idx := strings.Index(line, ":"); idx >= 0 {
			name = strings.TrimSpace(line[:idx])
			values = line[idx+1:]
		}
		s := widget.Series{Name: name}
		for _, field := range strings.Split(values, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("series %q: %q is not a number", name, field)
			}
			s.Points = append(s.Points, v)
		}
		series = append(series, s)
	}
	return series, nil
}

func (a *App) handleVideoCreate(c echo.Context) error {
	post, err := a.ownedPost(c)
	if err != nil {
		return err
	}
	v := &widget.Video{
		ID:     formID(c),
		PostID: post.ID,
		Title:  sanitize.Text(strings.TrimSpace(c.FormValue("title"))),
		URL:    strings.TrimSpace(c.FormValue("url")),
	}
	if v.ID > 0 {
		if err := a.requireWidgetOwner("video", v.ID, post.ID); err != nil {
			return err
		}
		if err := a.Store.UpdateVideo(v); err != nil {
			if errors.Is(err, widget.ErrInvalid) {
				return editorRedirect(c, post.ID, err.Error())
			}
			return err
		}
		return editorRedirect(c, post.ID, "Video updated.")
	}
	if err := a.Store.CreateVideo(v); err != nil {
		if errors.Is(err, widget.ErrInvalid) {
			return editorRedirect(c, post.ID, err.Error())
		}
		return err
	}
	return editorRedirect(c, post.ID, "Video added. Insert "+videoMarker(v.ID)+" into the body.")
}

func (a *App) handlePDFCreate(c echo.Context) error {
	post, err := a.ownedPost(c)
	if err != nil {
		return err
	}
	p := &widget.PDF{
		ID:     formID(c),
		PostID: post.ID,
		Title:  sanitize.Text(strings.TrimSpace(c.FormValue("title"))),
		URL:    strings.TrimSpace(c.FormValue("url")),
	}
	if p.ID > 0 {
		if err := a.requireWidgetOwner("pdf", p.ID, post.ID); err != nil {
			return err
		}
		if err := a.Store.UpdatePDF(p); err != nil {
			if errors.Is(err, widget.ErrInvalid) {
				return editorRedirect(c, post.ID, err.Error())
			}
			return err
		}
		return editorRedirect(c, post.ID, "PDF updated.")
	}
	if err := a.Store.CreatePDF(p); err != nil {
		if errors.Is(err, widget.ErrInvalid) {
			return editorRedirect(c, post.ID, err.Error())
		}
		return err
	}
	return editorRedirect(c, post.ID, "PDF added. Insert "+pdfMarker(p.ID)+" into the body.")
}

// handleWidgetDelete removes a widget definition. Shortcodes referencing the
// deleted id keep rendering as the placeholder, so nothing else needs fixing.
func (a *App) handleWidgetDelete(c echo.Context) error {
	post, err := a.ownedPost(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.FormValue("id"), 10, 64)
	if err != nil || id < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "id required")
	}
	kind := c.FormValue("kind")
	if err := a.requireWidgetOwner(kind, id, post.ID); err != nil {
		return err
	}

	switch kind {
	case "quiz":
		err = a.Store.DeleteQuiz(id)
	case "chart":
		err = a.Store.DeleteChart(id)
	case "video":
		err = a.Store.DeleteVideo(id)
	case "pdf":
		err = a.Store.DeletePDF(id)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown widget kind")
	}
	if err != nil {
		if errors.Is(err, widget.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	return editorRedirect(c, post.ID, "Widget removed.")
}

// SuggestTagsRequest is the editor's JSON payload for tag suggestions.
type SuggestTagsRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SuggestTagsResponse carries the suggested category and tags back to the
// editor script.
type SuggestTagsResponse struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (a *App) handleSuggestTags(c echo.Context) error {
	var req SuggestTagsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	suggestion, err := a.tagger.Suggest(c.Request().Context(), req.Title, sanitize.Text(req.Content))
	if err != nil {
		c.Logger().Warnf("Tag suggestion failed: %v", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "suggestion unavailable"})
	}
	return c.JSON(http.StatusOK, SuggestTagsResponse{Category: suggestion.Category, Tags: suggestion.Tags})
}
