package analytics

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is how timestamps are stored: UTC text that sorts
// lexicographically and feeds sqlite's date functions directly.
const timeLayout = "2006-01-02 15:04:05"

// Store provides database operations for views and attempts. It lives in its
// own database file so analytics churn never contends with content writes.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the analytics database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS post_views (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL,
			visitor_id TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS quiz_attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			quiz_id INTEGER NOT NULL,
			post_id INTEGER NOT NULL,
			visitor_id TEXT NOT NULL,
			answer TEXT NOT NULL,
			correct INTEGER NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_post_views_post_time ON post_views(post_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_post_views_time ON post_views(timestamp);
		CREATE INDEX IF NOT EXISTS idx_quiz_attempts_post_time ON quiz_attempts(post_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_quiz_attempts_quiz ON quiz_attempts(quiz_id);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

// migrate applies incremental schema migrations based on a version stored in
// the settings table.
func (s *Store) migrate() error {
	verStr, err := s.GetSetting("schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	version := 0
	if verStr != "" {
		version, err = strconv.Atoi(verStr)
		if err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}

	if version < currentSchemaVersion {
		version = currentSchemaVersion
	}

	return s.SetSetting("schema_version", strconv.Itoa(version))
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveView stores a post view and fills in its id.
func (s *Store) SaveView(v *PostView) error {
	res, err := s.db.Exec(`
		INSERT INTO post_views (post_id, visitor_id, timestamp) VALUES (?, ?, ?)`,
		v.PostID, v.VisitorID, v.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save view: %w", err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

// SaveAttempt stores a quiz attempt and fills in its id.
func (s *Store) SaveAttempt(a *QuizAttempt) error {
	res, err := s.db.Exec(`
		INSERT INTO quiz_attempts (quiz_id, post_id, visitor_id, answer, correct, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.QuizID, a.PostID, a.VisitorID, a.Answer, a.Correct, a.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// ListRecentAttempts returns the newest attempts for a post, newest first.
func (s *Store) ListRecentAttempts(postID int64, limit int) ([]QuizAttempt, error) {
	rows, err := s.db.Query(`
		SELECT id, quiz_id, post_id, visitor_id, answer, correct, timestamp
		FROM quiz_attempts WHERE post_id = ?
		ORDER BY timestamp DESC, id DESC LIMIT ?`, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []QuizAttempt
	for rows.Next() {
		var a QuizAttempt
		var ts string
		if err := rows.Scan(&a.ID, &a.QuizID, &a.PostID, &a.VisitorID, &a.Answer, &a.Correct, &ts); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Timestamp, _ = time.Parse(timeLayout, ts)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// TopPosts returns per-post view counts within the range, most viewed first.
func (s *Store) TopPosts(from, to time.Time, limit int) ([]PostStat, error) {
	rows, err := s.db.Query(`
		SELECT post_id, COUNT(*) AS views
		FROM post_views WHERE timestamp >= ? AND timestamp < ?
		GROUP BY post_id ORDER BY views DESC LIMIT ?`,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout), limit)
	if err != nil {
		return nil, fmt.Errorf("top posts: %w", err)
	}
	defer rows.Close()

	var stats []PostStat
	for rows.Next() {
		var st PostStat
		if err := rows.Scan(&st.PostID, &st.Views); err != nil {
			return nil, fmt.Errorf("scan post stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// DeleteViewsForPost removes all view rows for a post. Used when a post is
// destroyed, so its analytics do not outlive it.
func (s *Store) DeleteViewsForPost(postID int64) error {
	if _, err := s.db.Exec(`DELETE FROM post_views WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("delete views: %w", err)
	}
	return nil
}

// CleanupOldViews removes view rows older than the retention period.
// Attempts are kept forever; they stay meaningful at any age.
func (s *Store) CleanupOldViews(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	if _, err := s.db.Exec(`DELETE FROM post_views WHERE timestamp < ?`,
		cutoff.Format(timeLayout)); err != nil {
		return fmt.Errorf("cleanup views: %w", err)
	}
	return nil
}

// StartCleanupScheduler runs periodic cleanup of old view rows. Returns a
// stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOldViews(retentionDays); err != nil {
					log.Printf("analytics cleanup: %v", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
