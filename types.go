package inkpress

import "time"

// Post status values. A draft is visible only in the admin.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is the root content type. Body holds sanitized rich text with widget
// markers; it is cleaned once at write time and rendered through the widget
// pipeline on read.
type Post struct {
	ID        int64
	Slug      string
	Title     string
	Body      string
	Summary   string
	Status    string
	Category  string
	Tags      []string
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Published reports whether the post is publicly visible.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}

// Link returns the public URL path for the post.
func (p Post) Link() string {
	return "/posts/" + p.Slug + "/"
}

// User roles. Admins manage accounts and can edit any post; authors edit
// their own.
const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
)

// User is an author account. Login failures are counted so repeated bad
// passwords lock the account for a while.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	FailedLogins int
	LockedUntil  time.Time
	CreatedAt    time.Time
}

// Locked reports whether the account is currently locked out.
func (u User) Locked() bool {
	return time.Now().UTC().Before(u.LockedUntil)
}

// Admin reports whether the account has the admin role.
func (u User) Admin() bool {
	return u.Role == RoleAdmin
}

// Revision is a snapshot of a post body taken every time the post is saved.
type Revision struct {
	ID      int64
	PostID  int64
	Title   string
	Body    string
	SavedAt time.Time
}

// Upload is stored metadata for a media file on disk under the uploads
// directory.
type Upload struct {
	ID           int64
	Filename     string
	OriginalName string
	Kind         string // image | video | pdf
	Width        int
	Height       int
	Size         int
	UploadedAt   time.Time
}
