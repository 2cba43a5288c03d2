package inkpress

import (
	"fmt"
	"time"
)

// SaveUpload records an uploaded file's metadata, filling in its id.
func (s *Store) SaveUpload(u *Upload) error {
	u.UploadedAt = time.Now().UTC().Truncate(time.Second)
	res, err := s.db.Exec(`
		INSERT INTO uploads (filename, original_name, kind, width, height, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Filename, u.OriginalName, u.Kind, u.Width, u.Height, u.Size,
		u.UploadedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// GetUpload returns upload metadata by stored filename.
func (s *Store) GetUpload(filename string) (Upload, error) {
	var u Upload
	var uploaded string
	err := s.db.QueryRow(`
		SELECT id, filename, original_name, kind, width, height, size, uploaded_at
		FROM uploads WHERE filename = ?`, filename).
		Scan(&u.ID, &u.Filename, &u.OriginalName, &u.Kind, &u.Width, &u.Height, &u.Size, &uploaded)
	if err != nil {
		return Upload{}, err
	}
	u.UploadedAt, _ = time.Parse(timeLayout, uploaded)
	return u, nil
}

// ListUploads returns upload metadata newest first, optionally filtered by kind.
func (s *Store) ListUploads(kind string) ([]Upload, error) {
	query := `SELECT id, filename, original_name, kind, width, height, size, uploaded_at FROM uploads`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		var uploaded string
		if err := rows.Scan(&u.ID, &u.Filename, &u.OriginalName, &u.Kind, &u.Width, &u.Height, &u.Size, &uploaded); err != nil {
			return nil, err
		}
		u.UploadedAt, _ = time.Parse(timeLayout, uploaded)
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// DeleteUpload removes upload metadata and returns the deleted row so the
// caller can unlink the file on disk.
func (s *Store) DeleteUpload(filename string) (Upload, error) {
	u, err := s.GetUpload(filename)
	if err != nil {
		return Upload{}, err
	}
	if _, err := s.db.Exec(`DELETE FROM uploads WHERE filename = ?`, filename); err != nil {
		return Upload{}, fmt.Errorf("delete upload: %w", err)
	}
	return u, nil
}
