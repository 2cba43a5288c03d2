package inkpress

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is how timestamps are stored: UTC text that sorts
// lexicographically.
const timeLayout = "2006-01-02 15:04:05"

// Store wraps a SQLite database and provides CRUD operations for posts,
// widgets, users, revisions, and uploads.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction; larger cache and mmap reduce disk I/O.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    summary TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft',
    category TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT ',,',
    author_id INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_status_created ON posts(status, created_at);

CREATE TABLE IF NOT EXISTS quizzes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL,
    question TEXT NOT NULL,
    kind TEXT NOT NULL,
    options TEXT NOT NULL DEFAULT '[]',
    correct_answer TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS charts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    labels TEXT NOT NULL,
    series TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS videos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pdfs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quizzes_post ON quizzes(post_id);
CREATE INDEX IF NOT EXISTS idx_charts_post ON charts(post_id);
CREATE INDEX IF NOT EXISTS idx_videos_post ON videos(post_id);
CREATE INDEX IF NOT EXISTS idx_pdfs_post ON pdfs(post_id);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'author',
    failed_logins INTEGER NOT NULL DEFAULT 0,
    locked_until TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revisions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    saved_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_revisions_post ON revisions(post_id, saved_at);

CREATE TABLE IF NOT EXISTS uploads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT NOT NULL UNIQUE,
    original_name TEXT NOT NULL,
    kind TEXT NOT NULL,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    size INTEGER NOT NULL DEFAULT 0,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const postColumns = `id, slug, title, body, summary, status, category, tags, author_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	var tags, created, updated string
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Summary, &p.Status,
		&p.Category, &tags, &p.AuthorID, &created, &updated); err != nil {
		return Post{}, err
	}
	p.Tags = ParseTags(tags)
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	p.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return p, nil
}

// CreatePost inserts a new post and fills in its id and timestamps.
// The slug is derived from Slug or Title and made unique with a counter.
func (s *Store) CreatePost(p *Post) error {
	base := p.Slug
	if base == "" {
		base = Slugify(p.Title)
	}
	slug, err := s.uniqueSlug(base, 0)
	if err != nil {
		return err
	}
	p.Slug = slug

	now := time.Now().UTC().Truncate(time.Second)
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = StatusDraft
	}

	res, err := s.db.Exec(`
		INSERT INTO posts (slug, title, body, summary, status, category, tags, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Body, p.Summary, p.Status, p.Category, joinTags(p.Tags),
		p.AuthorID, now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdatePost rewrites an existing post and bumps its updated timestamp.
// Slug changes are re-uniqued against every other post.
func (s *Store) UpdatePost(p *Post) error {
	base := p.Slug
	if base == "" {
		base = Slugify(p.Title)
	}
	slug, err := s.uniqueSlug(base, p.ID)
	if err != nil {
		return err
	}
	p.Slug = slug
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	_, err = s.db.Exec(`
		UPDATE posts SET slug = ?, title = ?, body = ?, summary = ?, status = ?,
		category = ?, tags = ?, updated_at = ? WHERE id = ?`,
		p.Slug, p.Title, p.Body, p.Summary, p.Status, p.Category, joinTags(p.Tags),
		p.UpdatedAt.Format(timeLayout), p.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// uniqueSlug returns base, or base-2, base-3, ... until no other post holds
// it. excludeID skips the post being updated so it can keep its own slug.
func (s *Store) uniqueSlug(base string, excludeID int64) (string, error) {
	if base == "" {
		return "", fmt.Errorf("empty slug")
	}
	candidate := base
	for counter := 2; ; counter++ {
		var id int64
		err := s.db.QueryRow(`SELECT id FROM posts WHERE slug = ?`, candidate).Scan(&id)
		if err == sql.ErrNoRows {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if id == excludeID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}

// GetPost returns a post by id regardless of status.
func (s *Store) GetPost(id int64) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPostBySlug returns a single published post by slug.
func (s *Store) GetPostBySlug(slug string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = ? AND status = ?`,
		slug, StatusPublished)
	return scanPost(row)
}

// GetPostBySlugAny returns a post by slug regardless of status (for admin).
func (s *Store) GetPostBySlugAny(slug string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	return scanPost(row)
}

// ListPublished returns published posts newest first. Tag and category
// filters are optional; limit <= 0 means no pagination.
func (s *Store) ListPublished(tag, category string, limit, offset int) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = ?`
	args := []any{StatusPublished}

	if tag != "" {
		query += ` AND instr(lower(tags), ',' || ? || ',') > 0`
		args = append(args, strings.ToLower(strings.TrimSpace(tag)))
	}
	if category != "" {
		query += ` AND lower(category) = lower(?)`
		args = append(args, strings.TrimSpace(category))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPublished returns how many published posts match the filters.
func (s *Store) CountPublished(tag, category string) (int, error) {
	query := `SELECT COUNT(*) FROM posts WHERE status = ?`
	args := []any{StatusPublished}
	if tag != "" {
		query += ` AND instr(lower(tags), ',' || ? || ',') > 0`
		args = append(args, strings.ToLower(strings.TrimSpace(tag)))
	}
	if category != "" {
		query += ` AND lower(category) = lower(?)`
		args = append(args, strings.TrimSpace(category))
	}
	var count int
	err := s.db.QueryRow(query, args...).Scan(&count)
	return count, err
}

// ListAllPosts returns every post (published and drafts) newest first.
func (s *Store) ListAllPosts() ([]Post, error) {
	rows, err := s.db.Query(`SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListTags returns a sorted, deduplicated slice of all tags from published posts.
func (s *Store) ListTags() ([]string, error) {
	rows, err := s.db.Query(`SELECT tags FROM posts WHERE status = ?`, StatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var result []string
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// ListCategories returns a sorted, deduplicated slice of categories from
// published posts.
func (s *Store) ListCategories() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT lower(category) FROM posts WHERE status = ? AND category != '' ORDER BY 1`,
		StatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// DeletePost removes a post and all its widget children and revisions in one
// transaction. View records live in the analytics store and are pruned by
// the caller.
func (s *Store) DeletePost(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"quizzes", "charts", "videos", "pdfs", "revisions"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return tx.Commit()
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// joinTags normalizes tags to lowercase and stores them comma-wrapped so a
// single instr() can match whole tags.
func joinTags(tags []string) string {
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			normalized = append(normalized, t)
		}
	}
	return "," + strings.Join(normalized, ",") + ","
}
