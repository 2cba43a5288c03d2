package inkpress

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eringen/inkpress/widget"
)

// Store implements widget.Source: each lookup returns the definition or an
// error wrapping widget.ErrNotFound.

// Quiz returns a quiz definition by id.
func (s *Store) Quiz(id int64) (*widget.Quiz, error) {
	var q widget.Quiz
	var options string
	err := s.db.QueryRow(`SELECT id, post_id, question, kind, options, correct_answer FROM quizzes WHERE id = ?`, id).
		Scan(&q.ID, &q.PostID, &q.Question, &q.Kind, &options, &q.CorrectAnswer)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("quiz %d: %w", id, widget.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	q.Options, err = decodeStrings(options)
	if err != nil {
		return nil, fmt.Errorf("quiz %d options: %w", id, err)
	}
	return &q, nil
}

// Chart returns a chart definition by id.
func (s *Store) Chart(id int64) (*widget.Chart, error) {
	var c widget.Chart
	var labels, series string
	err := s.db.QueryRow(`SELECT id, post_id, title, labels, series FROM charts WHERE id = ?`, id).
		Scan(&c.ID, &c.PostID, &c.Title, &labels, &series)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chart %d: %w", id, widget.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if c.Labels, err = decodeStrings(labels); err != nil {
		return nil, fmt.Errorf("chart %d labels: %w", id, err)
	}
	if err := json.Unmarshal([]byte(series), &c.Series); err != nil {
		return nil, fmt.Errorf("chart %d series: %w", id, err)
	}
	return &c, nil
}

// Video returns a video definition by id.
func (s *Store) Video(id int64) (*widget.Video, error) {
	var v widget.Video
	err := s.db.QueryRow(`SELECT id, post_id, title, url FROM videos WHERE id = ?`, id).
		Scan(&v.ID, &v.PostID, &v.Title, &v.URL)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video %d: %w", id, widget.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// PDF returns a PDF definition by id.
func (s *Store) PDF(id int64) (*widget.PDF, error) {
	var p widget.PDF
	err := s.db.QueryRow(`SELECT id, post_id, title, url FROM pdfs WHERE id = ?`, id).
		Scan(&p.ID, &p.PostID, &p.Title, &p.URL)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pdf %d: %w", id, widget.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateQuiz validates and inserts a quiz, filling in its id.
func (s *Store) CreateQuiz(q *widget.Quiz) error {
	if err := q.Validate(); err != nil {
		return err
	}
	options, err := encodeStrings(q.Options)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		INSERT INTO quizzes (post_id, question, kind, options, correct_answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		q.PostID, q.Question, string(q.Kind), options, q.CorrectAnswer, nowText())
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	q.ID, err = res.LastInsertId()
	return err
}

// UpdateQuiz validates and rewrites an existing quiz.
func (s *Store) UpdateQuiz(q *widget.Quiz) error {
	if err := q.Validate(); err != nil {
		return err
	}
	options, err := encodeStrings(q.Options)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE quizzes SET question = ?, kind = ?, options = ?, correct_answer = ? WHERE id = ?`,
		q.Question, string(q.Kind), options, q.CorrectAnswer, q.ID)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return requireRow(res, "quiz", q.ID)
}

// DeleteQuiz removes a quiz definition. Recorded attempts stay in the
// analytics store.
func (s *Store) DeleteQuiz(id int64) error {
	res, err := s.db.Exec(`DELETE FROM quizzes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "quiz", id)
}

// ListQuizzesForPost returns the post's quizzes in creation order.
func (s *Store) ListQuizzesForPost(postID int64) ([]widget.Quiz, error) {
	rows, err := s.db.Query(`SELECT id, post_id, question, kind, options, correct_answer FROM quizzes WHERE post_id = ? ORDER BY id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []widget.Quiz
	for rows.Next() {
		var q widget.Quiz
		var options string
		if err := rows.Scan(&q.ID, &q.PostID, &q.Question, &q.Kind, &options, &q.CorrectAnswer); err != nil {
			return nil, err
		}
		if q.Options, err = decodeStrings(options); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// CreateChart validates and inserts a chart, filling in its id.
func (s *Store) CreateChart(c *widget.Chart) error {
	if err := c.Validate(); err != nil {
		return err
	}
	labels, err := encodeStrings(c.Labels)
	if err != nil {
		return err
	}
	series, err := json.Marshal(c.Series)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		INSERT INTO charts (post_id, title, labels, series, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.PostID, c.Title, labels, string(series), nowText())
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// UpdateChart validates and rewrites an existing chart.
func (s *Store) UpdateChart(c *widget.Chart) error {
	if err := c.Validate(); err != nil {
		return err
	}
	labels, err := encodeStrings(c.Labels)
	if err != nil {
		return err
	}
	series, err := json.Marshal(c.Series)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE charts SET title = ?, labels = ?, series = ? WHERE id = ?`,
		c.Title, labels, string(series), c.ID)
	if err != nil {
		return fmt.Errorf("update chart: %w", err)
	}
	return requireRow(res, "chart", c.ID)
}

// DeleteChart removes a chart definition.
func (s *Store) DeleteChart(id int64) error {
	res, err := s.db.Exec(`DELETE FROM charts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "chart", id)
}

// ListChartsForPost returns the post's charts in creation order.
func (s *Store) ListChartsForPost(postID int64) ([]widget.Chart, error) {
	rows, err := s.db.Query(`SELECT id, post_id, title, labels, series FROM charts WHERE post_id = ? ORDER BY id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charts []widget.Chart
	for rows.Next() {
		var c widget.Chart
		var labels, series string
		if err := rows.Scan(&c.ID, &c.PostID, &c.Title, &labels, &series); err != nil {
			return nil, err
		}
		if c.Labels, err = decodeStrings(labels); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(series), &c.Series); err != nil {
			return nil, err
		}
		charts = append(charts, c)
	}
	return charts, rows.Err()
}

// CreateVideo inserts a video widget, filling in its id.
func (s *Store) CreateVideo(v *widget.Video) error {
	if strings.TrimSpace(v.URL) == "" {
		return fmt.Errorf("video needs a URL: %w", widget.ErrInvalid)
	}
	res, err := s.db.Exec(`
		INSERT INTO videos (post_id, title, url, created_at) VALUES (?, ?, ?, ?)`,
		v.PostID, v.Title, v.URL, nowText())
	if err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

// UpdateVideo rewrites an existing video widget.
func (s *Store) UpdateVideo(v *widget.Video) error {
	if strings.TrimSpace(v.URL) == "" {
		return fmt.Errorf("video needs a URL: %w", widget.ErrInvalid)
	}
	res, err := s.db.Exec(`UPDATE videos SET title = ?, url = ? WHERE id = ?`, v.Title, v.URL, v.ID)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return requireRow(res, "video", v.ID)
}

// DeleteVideo removes a video widget.
func (s *Store) DeleteVideo(id int64) error {
	res, err := s.db.Exec(`DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "video", id)
}

// ListVideosForPost returns the post's videos in creation order.
func (s *Store) ListVideosForPost(postID int64) ([]widget.Video, error) {
	rows, err := s.db.Query(`SELECT id, post_id, title, url FROM videos WHERE post_id = ? ORDER BY id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []widget.Video
	for rows.Next() {
		var v widget.Video
		if err := rows.Scan(&v.ID, &v.PostID, &v.Title, &v.URL); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// CreatePDF inserts a PDF widget, filling in its id.
func (s *Store) CreatePDF(p *widget.PDF) error {
	if strings.TrimSpace(p.URL) == "" {
		return fmt.Errorf("pdf needs a URL: %w", widget.ErrInvalid)
	}
	res, err := s.db.Exec(`
		INSERT INTO pdfs (post_id, title, url, created_at) VALUES (?, ?, ?, ?)`,
		p.PostID, p.Title, p.URL, nowText())
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdatePDF rewrites an existing PDF widget.
func (s *Store) UpdatePDF(p *widget.PDF) error {
	if strings.TrimSpace(p.URL) == "" {
		return fmt.Errorf("pdf needs a URL: %w", widget.ErrInvalid)
	}
	res, err := s.db.Exec(`UPDATE pdfs SET title = ?, url = ? WHERE id = ?`, p.Title, p.URL, p.ID)
	if err != nil {
		return fmt.Errorf("update pdf: %w", err)
	}
	return requireRow(res, "pdf", p.ID)
}

// DeletePDF removes a PDF widget.
func (s *Store) DeletePDF(id int64) error {
	res, err := s.db.Exec(`DELETE FROM pdfs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "pdf", id)
}

// ListPDFsForPost returns the post's PDFs in creation order.
func (s *Store) ListPDFsForPost(postID int64) ([]widget.PDF, error) {
	rows, err := s.db.Query(`SELECT id, post_id, title, url FROM pdfs WHERE post_id = ? ORDER BY id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pdfs []widget.PDF
	for rows.Next() {
		var p widget.PDF
		if err := rows.Scan(&p.ID, &p.PostID, &p.Title, &p.URL); err != nil {
			return nil, err
		}
		pdfs = append(pdfs, p)
	}
	return pdfs, rows.Err()
}

func nowText() string {
	return time.Now().UTC().Format(timeLayout)
}

// requireRow turns a zero-row UPDATE or DELETE into widget.ErrNotFound.
func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, widget.ErrNotFound)
	}
	return nil
}

func encodeStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	raw, err := json.Marshal(v)
	return string(raw), err
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}
