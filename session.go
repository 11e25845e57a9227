package main

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Session and alert persistence. The user_state row is the single source
// of truth for "where is this user in their flow"; there is exactly one
// row per user and writing a new state replaces it wholesale.

// GetSession returns the user's current flow position, idle if none.
func (r *SQLiteRepository) GetSession(userID int) (Session, error) {
	row := r.db.QueryRow("SELECT state, payload_json FROM user_state WHERE telegram_id = ?", userID)
	var state string
	var payload sql.NullString
	if err := row.Scan(&state, &payload); err != nil {
		if err == sql.ErrNoRows {
			return Session{}, nil
		}
		return Session{}, err
	}
	var s Session
	if payload.Valid && payload.String != "" {
		// A payload that no longer parses is treated as empty rather
		// than wedging the user.
		_ = json.Unmarshal([]byte(payload.String), &s)
	}
	s.State = FlowState(state)
	return s, nil
}

// SetSession stores the user's flow position, overwriting any previous one.
func (r *SQLiteRepository) SetSession(userID int, s Session) error {
	if s.State == StateNone {
		return r.ClearSession(userID)
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT INTO user_state (telegram_id, state, payload_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			state = excluded.state,
			payload_json = excluded.payload_json,
			updated_at = excluded.updated_at`,
		userID, string(s.State), string(payload), time.Now().Format(time.RFC3339),
	)
	return err
}

// ClearSession puts the user back to idle.
func (r *SQLiteRepository) ClearSession(userID int) error {
	_, err := r.db.Exec("DELETE FROM user_state WHERE telegram_id = ?", userID)
	return err
}

// GetCurrentEvent returns the user's current event pointer, empty if unset.
func (r *SQLiteRepository) GetCurrentEvent(userID int) (string, error) {
	row := r.db.QueryRow("SELECT current_event_id FROM user_context WHERE telegram_id = ?", userID)
	var eventID sql.NullString
	if err := row.Scan(&eventID); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return eventID.String, nil
}

// SetCurrentEvent stores the user's current event pointer; empty clears it.
func (r *SQLiteRepository) SetCurrentEvent(userID int, eventID string) error {
	if eventID == "" {
		_, err := r.db.Exec("DELETE FROM user_context WHERE telegram_id = ?", userID)
		return err
	}
	_, err := r.db.Exec(`
		INSERT INTO user_context (telegram_id, current_event_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			current_event_id = excluded.current_event_id,
			updated_at = excluded.updated_at`,
		userID, eventID, time.Now().Format(time.RFC3339),
	)
	return err
}

// AddAlert persists a scheduled reminder and returns its ID.
func (r *SQLiteRepository) AddAlert(eventID string, fireAt time.Time, minutesBefore, createdBy int) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO alerts (event_id, fire_at, minutes_before, created_by, status, created_at)
		VALUES (?, ?, ?, ?, 'scheduled', ?)`,
		eventID, fireAt.Format(time.RFC3339), minutesBefore, createdBy, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListPendingAlerts returns every alert still in the scheduled state.
func (r *SQLiteRepository) ListPendingAlerts() ([]Alert, error) {
	rows, err := r.db.Query(`
		SELECT id, event_id, fire_at, minutes_before, created_by, status
		FROM alerts
		WHERE status = 'scheduled'`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var fireAt string
		if err := rows.Scan(&a.ID, &a.EventID, &fireAt, &a.MinutesBefore, &a.CreatedBy, &a.Status); err != nil {
			return nil, err
		}
		a.FireAt, _ = time.Parse(time.RFC3339, fireAt)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertSent moves an alert to the sent state.
func (r *SQLiteRepository) MarkAlertSent(alertID int64) error {
	_, err := r.db.Exec("UPDATE alerts SET status = 'sent' WHERE id = ?", alertID)
	return err
}
