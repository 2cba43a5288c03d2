package inkpress

import (
	"database/sql"
	"fmt"
	"time"
)

// revisionKeep caps how many revisions are retained per post; older ones are
// pruned as new saves come in.
const revisionKeep = 20

const userColumns = `id, username, password_hash, role, failed_logins, locked_until, created_at`

func scanUser(row rowScanner) (User, error) {
	var u User
	var locked, created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.FailedLogins, &locked, &created); err != nil {
		return User{}, err
	}
	if locked != "" {
		u.LockedUntil, _ = time.Parse(timeLayout, locked)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return u, nil
}

// CreateUser inserts a user with an already-hashed password. An empty role
// defaults to author.
func (s *Store) CreateUser(username, passwordHash, role string) (User, error) {
	if role == "" {
		role = RoleAuthor
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.Exec(`
		INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		username, passwordHash, role, now.Format(timeLayout))
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Username: username, PasswordHash: passwordHash, Role: role, CreatedAt: now}, nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(id int64) (User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername returns a user by name.
func (s *Store) GetUserByUsername(username string) (User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns how many users exist.
func (s *Store) CountUsers() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// DeleteUser removes an account. Posts keep their author_id so bylines and
// ownership history survive the account.
func (s *Store) DeleteUser(id int64) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateLoginState records the failure count and optional lockout deadline
// after a login attempt. A zero lockedUntil clears the lock.
func (s *Store) UpdateLoginState(id int64, failedLogins int, lockedUntil time.Time) error {
	locked := ""
	if !lockedUntil.IsZero() {
		locked = lockedUntil.UTC().Format(timeLayout)
	}
	_, err := s.db.Exec(`UPDATE users SET failed_logins = ?, locked_until = ? WHERE id = ?`,
		failedLogins, locked, id)
	return err
}

// ResetLoginState clears the failure count and lock after a successful login.
func (s *Store) ResetLoginState(id int64) error {
	return s.UpdateLoginState(id, 0, time.Time{})
}

// SaveRevision snapshots a post's editable fields before an overwrite and
// prunes snapshots beyond the retention cap.
func (s *Store) SaveRevision(postID int64, title, body string) error {
	now := time.Now().UTC().Format(timeLayout)
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO revisions (post_id, title, body, saved_at) VALUES (?, ?, ?, ?)`,
		postID, title, body, now); err != nil {
		return fmt.Errorf("save revision: %w", err)
	}
	if _, err := tx.Exec(`
		DELETE FROM revisions WHERE post_id = ? AND id NOT IN (
			SELECT id FROM revisions WHERE post_id = ? ORDER BY id DESC LIMIT ?
		)`, postID, postID, revisionKeep); err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	return tx.Commit()
}

// GetRevision returns one revision by id.
func (s *Store) GetRevision(id int64) (Revision, error) {
	var r Revision
	var saved string
	err := s.db.QueryRow(`SELECT id, post_id, title, body, saved_at FROM revisions WHERE id = ?`, id).
		Scan(&r.ID, &r.PostID, &r.Title, &r.Body, &saved)
	if err != nil {
		return Revision{}, err
	}
	r.SavedAt, _ = time.Parse(timeLayout, saved)
	return r, nil
}

// ListRevisions returns a post's revisions newest first.
func (s *Store) ListRevisions(postID int64, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = revisionKeep
	}
	rows, err := s.db.Query(`
		SELECT id, post_id, title, body, saved_at FROM revisions
		WHERE post_id = ? ORDER BY id DESC LIMIT ?`, postID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var r Revision
		var saved string
		if err := rows.Scan(&r.ID, &r.PostID, &r.Title, &r.Body, &saved); err != nil {
			return nil, err
		}
		r.SavedAt, _ = time.Parse(timeLayout, saved)
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}
