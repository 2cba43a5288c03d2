package views

// SiteConfig holds site-wide settings populated from environment variables.
// Every handler passes this to templates so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "Inkpress")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// Post is the view model for a content post. Body holds display HTML that has
// already been through the widget pipeline and sanitizer.
type Post struct {
	ID       int64
	Slug     string
	Title    string
	Summary  string
	Body     string
	Tags     []string
	Category string
	Date     string
	Updated  string
	Link     string
	Draft    bool
}

// Pager carries pagination state for the front page. Empty Prev/Next URLs
// hide the corresponding link.
type Pager struct {
	Page    int
	Pages   int
	PrevURL string
	NextURL string
}

// WidgetItem is one widget row in the post editor's sidebar. Marker is the
// shortcode text the author pastes into the body.
type WidgetItem struct {
	Kind   string
	ID     int64
	Label  string
	Marker string
}

// UploadItem is one file row on the uploads page.
type UploadItem struct {
	Filename string
	Original string
	Kind     string
	URL      string
	Size     string
	Date     string
}

// UserItem is one author row on the users page. Self marks the signed-in
// account, which cannot delete itself.
type UserItem struct {
	ID       int64
	Username string
	Role     string
	Created  string
	Locked   bool
	Self     bool
}

// RevisionItem is one snapshot row in the post editor's history panel.
type RevisionItem struct {
	ID      int64
	Title   string
	SavedAt string
}

// DayCount is one bar of the daily views chart. Percent sizes the bar
// relative to the busiest day.
type DayCount struct {
	Date    string
	Views   int
	Percent int
}

// QuizRow is one quiz's aggregate line on the analytics dashboard.
type QuizRow struct {
	QuizID   int64
	Question string
	Attempts int
	Correct  int
	RatePct  string
}

// SummaryView is everything the per-post analytics dashboard renders.
type SummaryView struct {
	PostID     int64
	PostTitle  string
	Period     string
	PeriodDays int
	ViewCount  int
	Days       []DayCount
	Quizzes    []QuizRow
}

// TopPostRow is one row of the most-viewed table.
type TopPostRow struct {
	PostID int64
	Title  string
	Link   string
	Views  int
}

// AttemptRow is one recent quiz attempt on the analytics dashboard.
type AttemptRow struct {
	QuizID   int64
	Question string
	Answer   string
	Correct  bool
	When     string
}

// PostOption is a post the analytics dashboard can be switched to.
type PostOption struct {
	ID       int64
	Title    string
	Selected bool
}
