// Package analytics records post views and quiz attempts and aggregates them
// into the per-post summaries behind the dashboard. Visitor identity is
// anonymous: a random session token when cookies are available, otherwise a
// salted hash of address and user agent.
package analytics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// salt holds the per-installation random salt for visitor hashing, protected
// by sync.Once.
var salt struct {
	once  sync.Once
	value string
}

// InitSalt loads or generates a persistent salt for visitor hashing.
// Must be called once at startup before any requests are served.
func InitSalt(store *Store) error {
	var initErr error
	salt.once.Do(func() {
		s, err := store.GetSetting("hash_salt")
		if err != nil {
			initErr = fmt.Errorf("read hash salt: %w", err)
			return
		}
		if s == "" {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				initErr = fmt.Errorf("generate salt: %w", err)
				return
			}
			s = hex.EncodeToString(b)
			if err := store.SetSetting("hash_salt", s); err != nil {
				initErr = fmt.Errorf("store hash salt: %w", err)
				return
			}
		}
		salt.value = s
	})
	return initErr
}

func getSalt() string {
	return salt.value
}

// PostView is one qualifying read of a published post. Rows are append-only.
type PostView struct {
	ID        int64     `json:"-"`
	PostID    int64     `json:"post_id"`
	VisitorID string    `json:"visitor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// QuizAttempt is one scored answer submission. Rows are written exactly once
// by the Evaluator and never mutated; the owning post id is denormalized into
// each row so per-post aggregation stays inside this store.
type QuizAttempt struct {
	ID        int64     `json:"-"`
	QuizID    int64     `json:"quiz_id"`
	PostID    int64     `json:"post_id"`
	VisitorID string    `json:"visitor_id"`
	Answer    string    `json:"answer"`
	Correct   bool      `json:"correct"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary is the aggregated engagement report for one post over a range.
type Summary struct {
	PostID     int64        `json:"post_id"`
	Period     string       `json:"period"`
	ViewCount  int          `json:"view_count"`
	ViewsByDay []ViewBucket `json:"views_by_day"`
	QuizStats  []QuizStat   `json:"quiz_stats"`
}

// ViewBucket is the view count for one calendar day. Gap days appear with a
// zero count so charts keep their time axis honest.
type ViewBucket struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// QuizStat is the attempt tally for one quiz.
type QuizStat struct {
	QuizID      int64   `json:"quiz_id"`
	Attempts    int     `json:"attempts"`
	Correct     int     `json:"correct"`
	SuccessRate float64 `json:"success_rate"`
}

// PostStat pairs a post with its view count, for the dashboard overview.
type PostStat struct {
	PostID int64 `json:"post_id"`
	Views  int   `json:"views"`
}

const visitorSessionName = "inkpress_visitor"

// Visitor returns the anonymous visitor identifier for this request: the
// random token held in the visitor session, minted on first sight, or a
// salted hash of address and user agent when the session cannot be stored.
func Visitor(c echo.Context) string {
	sess, err := session.Get(visitorSessionName, c)
	if err == nil {
		if id, ok := sess.Values["id"].(string); ok && id != "" {
			return id
		}
		sess.Options = &sessions.Options{
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			HttpOnly: true,
			Secure:   c.Scheme() == "https",
			SameSite: http.SameSiteLaxMode,
		}
		id := uuid.NewString()
		sess.Values["id"] = id
		if err := sess.Save(c.Request(), c.Response()); err == nil {
			return id
		}
	}
	return VisitorID(c.RealIP(), c.Request().UserAgent())
}

// VisitorID creates a salted visitor hash from address and user agent.
func VisitorID(ip, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(getSalt() + ip + "|" + userAgent))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// IsBot checks if the user agent is likely a bot or crawler. Bot reads do
// not qualify as post views.
func IsBot(ua string) bool {
	ua = strings.ToLower(ua)
	bots := []string{
		"bot", "crawler", "spider", "crawl", "slurp", "scrape",
		"googlebot", "bingbot", "yandex", "baidu", "duckduckbot",
		"facebookexternalhit", "twitterbot", "linkedinbot",
		"ahrefsbot", "semrushbot", "mj12bot", "dotbot",
	}
	for _, bot := range bots {
		if strings.Contains(ua, bot) {
			return true
		}
	}
	return false
}
