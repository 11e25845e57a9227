package main

import (
	"database/sql"
	"strings"
	"time"
)

// AddPhoto appends one photo to the event gallery.
func (r *SQLiteRepository) AddPhoto(eventID, fileID, caption string) error {
	_, err := r.db.Exec(
		"INSERT INTO photos (event_id, file_id, caption, uploaded_at) VALUES (?, ?, ?, ?)",
		eventID, fileID, caption, time.Now().Format(time.RFC3339),
	)
	return err
}

// ListPhotos returns the event photos in upload order.
func (r *SQLiteRepository) ListPhotos(eventID string) ([]Photo, error) {
	rows, err := r.db.Query(
		"SELECT event_id, file_id, caption, uploaded_at FROM photos WHERE event_id = ? ORDER BY uploaded_at ASC, id ASC",
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		var caption, uploadedAt sql.NullString
		if err := rows.Scan(&p.EventID, &p.FileID, &caption, &uploadedAt); err != nil {
			return nil, err
		}
		p.Caption = caption.String
		p.UploadedAt, _ = time.Parse(time.RFC3339, uploadedAt.String)
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// AddQuestion appends an anonymous question with status "new".
func (r *SQLiteRepository) AddQuestion(eventID string, senderID int, text string) error {
	_, err := r.db.Exec(`
		INSERT INTO anonymous_questions (event_id, sender_telegram_id, question_text, created_at, status)
		VALUES (?, ?, ?, ?, 'new')`,
		eventID, senderID, text, time.Now().Format(time.RFC3339),
	)
	return err
}

// ListQuestions returns the latest questions for the event. The sender is
// deliberately not selected.
func (r *SQLiteRepository) ListQuestions(eventID string, limit int) ([]Question, error) {
	rows, err := r.db.Query(`
		SELECT id, event_id, question_text, created_at, status
		FROM anonymous_questions
		WHERE event_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		eventID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		var createdAt sql.NullString
		if err := rows.Scan(&q.ID, &q.EventID, &q.Text, &createdAt, &q.Status); err != nil {
			return nil, err
		}
		q.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpsertFeedback writes one user's rating for an event. A new rating
// overwrites the old one; an empty comment keeps whatever comment is
// already stored.
func (r *SQLiteRepository) UpsertFeedback(eventID string, userID int, rating int, comment string) error {
	var c interface{}
	if strings.TrimSpace(comment) != "" {
		c = comment
	}
	_, err := r.db.Exec(`
		INSERT INTO feedback (event_id, telegram_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(event_id, telegram_id) DO UPDATE SET
			rating = excluded.rating,
			comment = COALESCE(excluded.comment, feedback.comment),
			created_at = excluded.created_at`,
		eventID, userID, rating, c, time.Now().Format(time.RFC3339),
	)
	return err
}

// GetFeedbackSummary counts positive and negative ratings for the event.
func (r *SQLiteRepository) GetFeedbackSummary(eventID string) (FeedbackSummary, error) {
	rows, err := r.db.Query(
		"SELECT rating, COUNT(*) FROM feedback WHERE event_id = ? GROUP BY rating", eventID,
	)
	if err != nil {
		return FeedbackSummary{}, err
	}
	defer rows.Close()

	var s FeedbackSummary
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return FeedbackSummary{}, err
		}
		switch rating {
		case 1:
			s.Up = count
		case -1:
			s.Down = count
		}
	}
	s.Total = s.Up + s.Down
	return s, rows.Err()
}

// ListFeedbackComments returns the latest non-empty comments for the event.
func (r *SQLiteRepository) ListFeedbackComments(eventID string, limit int) ([]Feedback, error) {
	rows, err := r.db.Query(`
		SELECT event_id, telegram_id, rating, comment, created_at
		FROM feedback
		WHERE event_id = ? AND comment IS NOT NULL AND TRIM(comment) != ''
		ORDER BY created_at DESC
		LIMIT ?`,
		eventID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Feedback
	for rows.Next() {
		var f Feedback
		var createdAt sql.NullString
		if err := rows.Scan(&f.EventID, &f.TelegramID, &f.Rating, &f.Comment, &createdAt); err != nil {
			return nil, err
		}
		f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
		comments = append(comments, f)
	}
	return comments, rows.Err()
}
