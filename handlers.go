package inkpress

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpress/analytics"
	"github.com/eringen/inkpress/views"
)

// homePageSize is how many posts the front page shows per page.
const homePageSize = 10

func (a *App) viewConfig() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

func viewPost(p Post) views.Post {
	return views.Post{
		ID:       p.ID,
		Slug:     p.Slug,
		Title:    p.Title,
		Summary:  p.Summary,
		Body:     p.Body,
		Tags:     p.Tags,
		Category: p.Category,
		Date:     p.CreatedAt.Format("2006-01-02"),
		Updated:  p.UpdatedAt.Format("2006-01-02"),
		Link:     p.Link(),
		Draft:    !p.Published(),
	}
}

func viewPosts(posts []Post) []views.Post {
	out := make([]views.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, viewPost(p))
	}
	return out
}

func (a *App) handleHome(c echo.Context) error {
	tag := c.QueryParam("tag")
	category := c.QueryParam("category")

	posts, err := a.Cache.ListPosts(tag, category)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags()
	if err != nil {
		return err
	}
	categories, err := a.Cache.ListCategories()
	if err != nil {
		return err
	}

	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 1 {
		page = p
	}
	pages := (len(posts) + homePageSize - 1) / homePageSize
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * homePageSize
	end := start + homePageSize
	if end > len(posts) {
		end = len(posts)
	}

	pager := views.Pager{Page: page, Pages: pages}
	if page > 1 {
		pager.PrevURL = homePageURL(tag, category, page-1)
	}
	if page < pages {
		pager.NextURL = homePageURL(tag, category, page+1)
	}

	return Render(c, views.Home(a.viewConfig(), viewPosts(posts[start:end]), tag, tags, category, categories, pager))
}

func homePageURL(tag, category string, page int) string {
	q := url.Values{}
	if tag != "" {
		q.Set("tag", tag)
	}
	if category != "" {
		q.Set("category", category)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.Cache.GetPost(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, views.NotFound(a.viewConfig()))
		}
		return err
	}

	// The view row is written before any of the page is, so a recorded view
	// exists for every page a reader ever saw.
	a.recordView(c, post.ID)

	rendered := viewPost(post)
	rendered.Body = a.pipeline.RenderPost(post.Body)

	all, err := a.Cache.ListPosts("", "")
	if err != nil {
		return err
	}
	related := views.RelatedPosts(rendered, viewPosts(all))
	if len(related) > 5 {
		related = related[:5]
	}

	return Render(c, views.PostPage(a.viewConfig(), rendered, related))
}

// recordView stores one PostView for this request. Crawler reads and
// analytics failures never affect the page itself.
func (a *App) recordView(c echo.Context, postID int64) {
	if a.analyticsStore == nil {
		return
	}
	if analytics.IsBot(c.Request().UserAgent()) {
		return
	}
	view := &analytics.PostView{
		PostID:    postID,
		VisitorID: analytics.Visitor(c),
		Timestamp: time.Now().UTC(),
	}
	if err := a.analyticsStore.SaveView(view); err != nil {
		c.Logger().Errorf("Failed to record view for post %d: %v", postID, err)
	}
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts("", "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts("", "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	base := strings.TrimRight(a.Config.URL, "/")
	return c.String(http.StatusOK,
		"User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: "+base+"/sitemap.xml\n")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	// API routes speak JSON; let the default handler answer for them.
	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/admin/api/") ||
		strings.HasPrefix(path, "/admin/analytics/api/") {
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.viewConfig()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, views.ServerError(a.viewConfig()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
