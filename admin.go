package inkpress

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/inkpress/sanitize"
	"github.com/eringen/inkpress/views"
)

// Account lockout: five straight failures lock the account for fifteen
// minutes. This sits behind the per-IP login limiter, so a distributed
// guesser still runs into it.
const (
	lockoutThreshold = 5
	lockoutDuration  = 15 * time.Minute
)

func (a *App) handleAdmin(c echo.Context) error {
	if !SignedIn(c) {
		return Render(c, views.AdminLogin(a.viewConfig(), c.QueryParam("msg"), CsrfToken(c)))
	}
	return a.renderDashboard(c, c.QueryParam("msg"))
}

func (a *App) renderDashboard(c echo.Context, msg string) error {
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	return Render(c, views.AdminDashboard(a.viewConfig(), viewPosts(posts), msg, CurrentUsername(c), CsrfToken(c)))
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return RenderStatus(c, http.StatusTooManyRequests,
			views.AdminLogin(a.viewConfig(), "Too many login attempts. Try again later.", CsrfToken(c)))
	}

	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	user, err := a.Store.GetUserByUsername(username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		// Burn a comparison anyway so unknown usernames cost the same as
		// wrong passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGyUW3QW2zNhkX5pLKwTXphij1JmW2pW"), []byte(password))
		a.loginLimiter.Record(c.RealIP())
		return Render(c, views.AdminLogin(a.viewConfig(), "Invalid username or password.", CsrfToken(c)))
	}

	if user.Locked() {
		return Render(c, views.AdminLogin(a.viewConfig(), "Account temporarily locked. Try again later.", CsrfToken(c)))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		a.loginLimiter.Record(c.RealIP())
		failures := user.FailedLogins + 1
		var lockedUntil time.Time
		if failures >= lockoutThreshold {
			lockedUntil = time.Now().UTC().Add(lockoutDuration)
			failures = 0
		}
		if err := a.Store.UpdateLoginState(user.ID, failures, lockedUntil); err != nil {
			c.Logger().Errorf("Failed to record login failure for %q: %v", username, err)
		}
		return Render(c, views.AdminLogin(a.viewConfig(), "Invalid username or password.", CsrfToken(c)))
	}

	if err := a.Store.ResetLoginState(user.ID); err != nil {
		c.Logger().Errorf("Failed to reset login state for %q: %v", username, err)
	}
	if err := setUserSession(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func handleLogout(c echo.Context) error {
	if err := clearUserSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// canEdit reports whether the signed-in user may modify the post. Authors
// edit their own posts; admins edit anything.
func canEdit(c echo.Context, p Post) bool {
	return IsAdmin(c) || (p.AuthorID != 0 && p.AuthorID == currentUserID(c))
}

func (a *App) handleEditorNew(c echo.Context) error {
	return Render(c, views.PostForm(a.viewConfig(), views.Post{}, nil, nil, CurrentUsername(c), CsrfToken(c), true))
}

func (a *App) handleEditor(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	post, err := a.Store.GetPost(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	if !canEdit(c, post) {
		return echo.NewHTTPError(http.StatusForbidden, "not your post")
	}

	widgets, err := a.widgetItems(post.ID)
	if err != nil {
		return err
	}
	revisions, err := a.revisionItems(post.ID)
	if err != nil {
		return err
	}
	return Render(c, views.PostForm(a.viewConfig(), viewPost(post), widgets, revisions, CurrentUsername(c), CsrfToken(c), false))
}

// widgetItems collects every widget attached to the post for the editor's
// sidebar, with the marker text the author pastes into the body.
func (a *App) widgetItems(postID int64) ([]views.WidgetItem, error) {
	var items []views.WidgetItem

	quizzes, err := a.Store.ListQuizzesForPost(postID)
	if err != nil {
		return nil, err
	}
	for _, q := range quizzes {
		items = append(items, views.WidgetItem{
			Kind: "quiz", ID: q.ID, Label: q.Question,
			Marker: quizMarker(q.ID),
		})
	}

	charts, err := a.Store.ListChartsForPost(postID)
	if err != nil {
		return nil, err
	}
	for _, ch := range charts {
		label := ch.Title
		if label == "" {
			label = "chart"
		}
		items = append(items, views.WidgetItem{
			Kind: "chart", ID: ch.ID, Label: label,
			Marker: chartMarker(ch.ID),
		})
	}

	videos, err := a.Store.ListVideosForPost(postID)
	if err != nil {
		return nil, err
	}
	for _, v := range videos {
		label := v.Title
		if label == "" {
			label = v.URL
		}
		items = append(items, views.WidgetItem{
			Kind: "video", ID: v.ID, Label: label,
			Marker: videoMarker(v.ID),
		})
	}

	pdfs, err := a.Store.ListPDFsForPost(postID)
	if err != nil {
		return nil, err
	}
	for _, p := range pdfs {
		label := p.Title
		if label == "" {
			label = p.URL
		}
		items = append(items, views.WidgetItem{
			Kind: "pdf", ID: p.ID, Label: label,
			Marker: pdfMarker(p.ID),
		})
	}
	return items, nil
}

func (a *App) revisionItems(postID int64) ([]views.RevisionItem, error) {
	revisions, err := a.Store.ListRevisions(postID, 0)
	if err != nil {
		return nil, err
	}
	items := make([]views.RevisionItem, 0, len(revisions))
	for _, r := range revisions {
		items = append(items, views.RevisionItem{
			ID:      r.ID,
			Title:   r.Title,
			SavedAt: r.SavedAt.Format("2006-01-02 15:04"),
		})
	}
	return items, nil
}

func (a *App) handleSave(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	id, _ := strconv.ParseInt(c.FormValue("id"), 10, 64)

	title := sanitize.Text(strings.TrimSpace(c.FormValue("title")))
	if title == "" {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=Title+is+required.")
	}
	status := c.FormValue("status")
	if status != StatusPublished {
		status = StatusDraft
	}

	post := Post{
		ID:       id,
		Slug:     strings.TrimSpace(c.FormValue("slug")),
		Title:    title,
		Summary:  sanitize.Text(strings.TrimSpace(c.FormValue("summary"))),
		Status:   status,
		Category: sanitize.Text(strings.TrimSpace(c.FormValue("category"))),
		Tags:     FilterEmpty(strings.Split(c.FormValue("tags"), ",")),
		// The body is cleaned once here, at write time. Shortcode markers are
		// plain text and survive the allow-list untouched.
		Body: sanitize.Content(c.FormValue("body")),
	}

	if post.Status == StatusPublished && (post.Category == "" || len(post.Tags) == 0) {
		a.suggestMissingTags(c, &post)
	}

	if id == 0 {
		post.AuthorID = currentUserID(c)
		if err := a.Store.CreatePost(&post); err != nil {
			return err
		}
	} else {
		existing, err := a.Store.GetPost(id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return echo.NewHTTPError(http.StatusNotFound)
			}
			return err
		}
		if !canEdit(c, existing) {
			return echo.NewHTTPError(http.StatusForbidden, "not your post")
		}
		// Snapshot what is being overwritten before it goes away.
		if err := a.Store.SaveRevision(id, existing.Title, existing.Body); err != nil {
			c.Logger().Errorf("Failed to save revision for post %d: %v", id, err)
		}
		post.AuthorID = existing.AuthorID
		if existing.Published() {
			// Slugs freeze at first publish so links never rot.
			post.Slug = existing.Slug
		}
		if err := a.Store.UpdatePost(&post); err != nil {
			return err
		}
	}

	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin/post/"+strconv.FormatInt(post.ID, 10)+"/?msg=Saved.")
}

// suggestMissingTags fills empty category/tags from the suggester. Failures
// only cost the suggestion, never the save.
func (a *App) suggestMissingTags(c echo.Context, post *Post) {
	if a.tagger == nil {
		return
	}
	suggestion, err := a.tagger.Suggest(c.Request().Context(), post.Title, sanitize.Text(post.Body))
	if err != nil {
		c.Logger().Warnf("Tag suggestion failed: %v", err)
		return
	}
	if post.Category == "" {
		post.Category = suggestion.Category
	}
	if len(post.Tags) == 0 {
		post.Tags = suggestion.Tags
	}
}

func (a *App) handleDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	post, err := a.Store.GetPost(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	if !canEdit(c, post) {
		return echo.NewHTTPError(http.StatusForbidden, "not your post")
	}

	if err := a.Store.DeletePost(id); err != nil {
		return err
	}
	if a.analyticsStore != nil {
		if err := a.analyticsStore.DeleteViewsForPost(id); err != nil {
			c.Logger().Errorf("Failed to delete views for post %d: %v", id, err)
		}
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin/?msg=Deleted.")
}

func (a *App) handleRestore(c echo.Context) error {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	revisionID, _ := strconv.ParseInt(c.FormValue("revision_id"), 10, 64)

	post, err := a.Store.GetPost(postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	if !canEdit(c, post) {
		return echo.NewHTTPError(http.StatusForbidden, "not your post")
	}

	rev, err := a.Store.GetRevision(revisionID)
	if err != nil || rev.PostID != postID {
		return echo.NewHTTPError(http.StatusNotFound, "revision not found")
	}

	// The restore itself is undoable: current state becomes a revision first.
	if err := a.Store.SaveRevision(postID, post.Title, post.Body); err != nil {
		c.Logger().Errorf("Failed to snapshot before restore of post %d: %v", postID, err)
	}
	post.Title = rev.Title
	post.Body = rev.Body
	if err := a.Store.UpdatePost(&post); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin/post/"+strconv.FormatInt(postID, 10)+"/?msg=Revision+restored.")
}

func (a *App) handleUsers(c echo.Context) error {
	users, err := a.Store.ListUsers()
	if err != nil {
		return err
	}
	self := currentUserID(c)
	items := make([]views.UserItem, 0, len(users))
	for _, u := range users {
		items = append(items, views.UserItem{
			ID:       u.ID,
			Username: u.Username,
			Role:     u.Role,
			Created:  u.CreatedAt.Format("2006-01-02"),
			Locked:   u.Locked(),
			Self:     u.ID == self,
		})
	}
	return Render(c, views.UsersPage(a.viewConfig(), items, c.QueryParam("msg"), CurrentUsername(c), CsrfToken(c)))
}

func (a *App) handleUserDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if id == currentUserID(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/users/?msg="+url.QueryEscape("You cannot delete your own account."))
	}
	if err := a.Store.DeleteUser(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/users/?msg=Account+deleted.")
}
