package main

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for database operations. The entity
// store and the per-user session store live behind the same interface;
// every write is a single self-contained upsert or update.
type Repository interface {
	CreateTables() error

	// Events
	CreateEvent(eventID string, organizerID int, name string) error
	DeleteEvent(eventID string) error
	GetEvent(eventID string) (*Event, error)
	IsOrganizer(eventID string, userID int) (bool, error)
	ListOrganizerEvents(userID int) ([]Event, error)
	ListJoinedEvents(userID int) ([]Event, error)

	// Event content
	GetContent(eventID string) (*EventContent, error)
	SetAgenda(eventID, agenda string) error
	SetWifi(eventID, ssid, password string) error
	SetOrganizerInfo(eventID, name, phone, email, telegram string) error
	SetTime(eventID string, t *time.Time) error
	SetLocation(eventID, location string) error
	SetMapPin(eventID string, lat, lon float64) error
	ClearMapPin(eventID string) error

	// Participants
	EnsureParticipantStub(eventID string, userID int, username, firstName, lastName string) error
	IsFullyRegistered(eventID string, userID int) (bool, error)
	SetRegistrationInfo(eventID string, userID int, fullName, phone, company string) error
	ListMembers(eventID string) ([]Participant, error)
	RemoveParticipant(eventID string, userID int) error
	ListParticipantIDs(eventID string) ([]int, error)

	// Photos, questions, feedback
	AddPhoto(eventID, fileID, caption string) error
	ListPhotos(eventID string) ([]Photo, error)
	AddQuestion(eventID string, senderID int, text string) error
	ListQuestions(eventID string, limit int) ([]Question, error)
	UpsertFeedback(eventID string, userID int, rating int, comment string) error
	GetFeedbackSummary(eventID string) (FeedbackSummary, error)
	ListFeedbackComments(eventID string, limit int) ([]Feedback, error)

	// User sessions
	GetSession(userID int) (Session, error)
	SetSession(userID int, s Session) error
	ClearSession(userID int) error
	GetCurrentEvent(userID int) (string, error)
	SetCurrentEvent(userID int, eventID string) error

	// Alerts
	AddAlert(eventID string, fireAt time.Time, minutesBefore, createdBy int) (int64, error)
	ListPendingAlerts() ([]Alert, error)
	MarkAlertSent(alertID int64) error
}

// SQLiteRepository implements the Repository interface.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLiteRepository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateTables creates all tables the bot needs.
func (r *SQLiteRepository) CreateTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			event_name TEXT,
			organizer_id INTEGER NOT NULL,
			created_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS event_content (
			event_id TEXT PRIMARY KEY,
			agenda TEXT,
			wifi_ssid TEXT,
			wifi_password TEXT,
			organizer_name TEXT,
			organizer_phone TEXT,
			organizer_email TEXT,
			organizer_telegram TEXT,
			event_time TEXT,
			event_location TEXT,
			pin_lat REAL,
			pin_lon REAL
		);`,
		`CREATE TABLE IF NOT EXISTS participants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL,
			telegram_id INTEGER NOT NULL,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			full_name TEXT,
			phone_number TEXT,
			company_name TEXT,
			registered_at TEXT,
			UNIQUE(event_id, telegram_id)
		);`,
		`CREATE TABLE IF NOT EXISTS photos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL,
			file_id TEXT NOT NULL,
			caption TEXT,
			uploaded_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS anonymous_questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL,
			sender_telegram_id INTEGER,
			question_text TEXT NOT NULL,
			created_at TEXT,
			status TEXT DEFAULT 'new'
		);`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL,
			telegram_id INTEGER NOT NULL,
			rating INTEGER NOT NULL,
			comment TEXT,
			created_at TEXT,
			UNIQUE(event_id, telegram_id)
		);`,
		`CREATE TABLE IF NOT EXISTS user_state (
			telegram_id INTEGER PRIMARY KEY,
			state TEXT,
			payload_json TEXT,
			updated_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS user_context (
			telegram_id INTEGER PRIMARY KEY,
			current_event_id TEXT,
			updated_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL,
			fire_at TEXT NOT NULL,
			minutes_before INTEGER NOT NULL,
			created_by INTEGER NOT NULL,
			status TEXT DEFAULT 'scheduled',
			created_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_organizer ON events(organizer_id);`,
		`CREATE INDEX IF NOT EXISTS idx_participants_event ON participants(event_id);`,
		`CREATE INDEX IF NOT EXISTS idx_photos_event ON photos(event_id);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_event ON anonymous_questions(event_id);`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_event ON feedback(event_id);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_fireat ON alerts(fire_at);`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// CreateEvent inserts the event together with its empty content row.
func (r *SQLiteRepository) CreateEvent(eventID string, organizerID int, name string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO events (event_id, event_name, organizer_id, created_at) VALUES (?, ?, ?, ?)",
		eventID, name, organizerID, time.Now().Format(time.RFC3339),
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO event_content (event_id) VALUES (?)", eventID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteEvent removes the event and everything that hangs off it. The
// cascade is done explicitly in one transaction rather than relying on
// foreign key support being enabled.
func (r *SQLiteRepository) DeleteEvent(eventID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	children := []string{
		"DELETE FROM event_content WHERE event_id = ?",
		"DELETE FROM participants WHERE event_id = ?",
		"DELETE FROM photos WHERE event_id = ?",
		"DELETE FROM anonymous_questions WHERE event_id = ?",
		"DELETE FROM feedback WHERE event_id = ?",
		"DELETE FROM alerts WHERE event_id = ?",
	}
	for _, q := range children {
		if _, err := tx.Exec(q, eventID); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM events WHERE event_id = ?", eventID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetEvent returns the event, or nil if it does not exist.
func (r *SQLiteRepository) GetEvent(eventID string) (*Event, error) {
	row := r.db.QueryRow(
		"SELECT event_id, event_name, organizer_id, created_at FROM events WHERE event_id = ?",
		eventID,
	)
	var ev Event
	var createdAt string
	err := row.Scan(&ev.ID, &ev.Name, &ev.OrganizerID, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &ev, nil
}

// IsOrganizer reports whether userID owns the event. A missing event is
// simply "no".
func (r *SQLiteRepository) IsOrganizer(eventID string, userID int) (bool, error) {
	row := r.db.QueryRow("SELECT organizer_id FROM events WHERE event_id = ?", eventID)
	var organizerID int
	if err := row.Scan(&organizerID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return organizerID == userID, nil
}

// ListOrganizerEvents returns the events the user organizes, newest first.
func (r *SQLiteRepository) ListOrganizerEvents(userID int) ([]Event, error) {
	rows, err := r.db.Query(
		"SELECT event_id, event_name, organizer_id, created_at FROM events WHERE organizer_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListJoinedEvents returns the events the user participates in, newest first.
func (r *SQLiteRepository) ListJoinedEvents(userID int) ([]Event, error) {
	rows, err := r.db.Query(`
		SELECT e.event_id, e.event_name, e.organizer_id, e.created_at
		FROM participants p
		JOIN events e ON e.event_id = p.event_id
		WHERE p.telegram_id = ?
		ORDER BY e.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var ev Event
		var createdAt string
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.OrganizerID, &createdAt); err != nil {
			return nil, err
		}
		ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetContent returns the event's content row, or nil if the event is gone.
func (r *SQLiteRepository) GetContent(eventID string) (*EventContent, error) {
	row := r.db.QueryRow(`
		SELECT event_id, agenda, wifi_ssid, wifi_password,
		       organizer_name, organizer_phone, organizer_email, organizer_telegram,
		       event_time, event_location, pin_lat, pin_lon
		FROM event_content WHERE event_id = ?`,
		eventID,
	)
	var c EventContent
	var agenda, ssid, pwd, oname, ophone, oemail, otg, etime, loc sql.NullString
	var lat, lon sql.NullFloat64
	err := row.Scan(&c.EventID, &agenda, &ssid, &pwd, &oname, &ophone, &oemail, &otg, &etime, &loc, &lat, &lon)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.Agenda = agenda.String
	c.WifiSSID = ssid.String
	c.WifiPassword = pwd.String
	c.OrganizerName = oname.String
	c.OrganizerPhone = ophone.String
	c.OrganizerEmail = oemail.String
	c.OrganizerTelegram = otg.String
	c.Location = loc.String
	if etime.Valid && etime.String != "" {
		if t, err := time.Parse(time.RFC3339, etime.String); err == nil {
			c.EventTime = &t
		}
	}
	if lat.Valid && lon.Valid {
		la, lo := lat.Float64, lon.Float64
		c.PinLat = &la
		c.PinLon = &lo
	}
	return &c, nil
}

// SetAgenda updates the event agenda text.
func (r *SQLiteRepository) SetAgenda(eventID, agenda string) error {
	return r.updateContent(eventID, "agenda = ?", agenda)
}

// SetWifi updates the event WiFi credentials.
func (r *SQLiteRepository) SetWifi(eventID, ssid, password string) error {
	return r.updateContent(eventID, "wifi_ssid = ?, wifi_password = ?", ssid, password)
}

// SetOrganizerInfo updates the organizer contact fields.
func (r *SQLiteRepository) SetOrganizerInfo(eventID, name, phone, email, telegram string) error {
	return r.updateContent(eventID,
		"organizer_name = ?, organizer_phone = ?, organizer_email = ?, organizer_telegram = ?",
		name, phone, email, telegram)
}

// SetTime updates the scheduled event time; nil clears it.
func (r *SQLiteRepository) SetTime(eventID string, t *time.Time) error {
	if t == nil {
		return r.updateContent(eventID, "event_time = NULL")
	}
	return r.updateContent(eventID, "event_time = ?", t.Format(time.RFC3339))
}

// SetLocation updates the free-text location; empty clears it.
func (r *SQLiteRepository) SetLocation(eventID, location string) error {
	if strings.TrimSpace(location) == "" {
		return r.updateContent(eventID, "event_location = NULL")
	}
	return r.updateContent(eventID, "event_location = ?", location)
}

// SetMapPin stores the geo pin for the event.
func (r *SQLiteRepository) SetMapPin(eventID string, lat, lon float64) error {
	return r.updateContent(eventID, "pin_lat = ?, pin_lon = ?", lat, lon)
}

// ClearMapPin removes the geo pin.
func (r *SQLiteRepository) ClearMapPin(eventID string) error {
	return r.updateContent(eventID, "pin_lat = NULL, pin_lon = NULL")
}

func (r *SQLiteRepository) updateContent(eventID, set string, args ...interface{}) error {
	args = append(args, eventID)
	_, err := r.db.Exec(fmt.Sprintf("UPDATE event_content SET %s WHERE event_id = ?", set), args...)
	return err
}

// EnsureParticipantStub creates the participant row for a user the first
// time they touch an event, and refreshes the identity fields after that.
func (r *SQLiteRepository) EnsureParticipantStub(eventID string, userID int, username, firstName, lastName string) error {
	username = normUsername(username)
	if _, err := r.db.Exec(`
		INSERT OR IGNORE INTO participants (event_id, telegram_id, username, first_name, last_name, registered_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		eventID, userID, username, firstName, lastName, time.Now().Format(time.RFC3339),
	); err != nil {
		return err
	}
	_, err := r.db.Exec(`
		UPDATE participants
		SET username = COALESCE(NULLIF(?, ''), username),
		    first_name = COALESCE(NULLIF(?, ''), first_name),
		    last_name = COALESCE(NULLIF(?, ''), last_name)
		WHERE event_id = ? AND telegram_id = ?`,
		username, firstName, lastName, eventID, userID,
	)
	return err
}

// IsFullyRegistered reports whether the user completed registration for the
// event: full name, phone and company must all be present.
func (r *SQLiteRepository) IsFullyRegistered(eventID string, userID int) (bool, error) {
	row := r.db.QueryRow(
		"SELECT full_name, phone_number, company_name FROM participants WHERE event_id = ? AND telegram_id = ?",
		eventID, userID,
	)
	var fullName, phone, company sql.NullString
	if err := row.Scan(&fullName, &phone, &company); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(fullName.String) != "" &&
		strings.TrimSpace(phone.String) != "" &&
		strings.TrimSpace(company.String) != "", nil
}

// SetRegistrationInfo writes the three registration fields in one update.
func (r *SQLiteRepository) SetRegistrationInfo(eventID string, userID int, fullName, phone, company string) error {
	_, err := r.db.Exec(`
		UPDATE participants
		SET full_name = ?, phone_number = ?, company_name = ?
		WHERE event_id = ? AND telegram_id = ?`,
		strings.TrimSpace(fullName), normPhone(phone), strings.TrimSpace(company), eventID, userID,
	)
	return err
}

// ListMembers returns the event participants, newest first.
func (r *SQLiteRepository) ListMembers(eventID string) ([]Participant, error) {
	rows, err := r.db.Query(`
		SELECT event_id, telegram_id, username, first_name, last_name,
		       full_name, phone_number, company_name, registered_at
		FROM participants
		WHERE event_id = ?
		ORDER BY registered_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Participant
	for rows.Next() {
		var p Participant
		var username, firstName, lastName, fullName, phone, company, registeredAt sql.NullString
		if err := rows.Scan(&p.EventID, &p.TelegramID, &username, &firstName, &lastName,
			&fullName, &phone, &company, &registeredAt); err != nil {
			return nil, err
		}
		p.Username = username.String
		p.FirstName = firstName.String
		p.LastName = lastName.String
		p.FullName = fullName.String
		p.Phone = phone.String
		p.Company = company.String
		p.RegisteredAt, _ = time.Parse(time.RFC3339, registeredAt.String)
		members = append(members, p)
	}
	return members, rows.Err()
}

// RemoveParticipant removes one user from one event.
func (r *SQLiteRepository) RemoveParticipant(eventID string, userID int) error {
	_, err := r.db.Exec("DELETE FROM participants WHERE event_id = ? AND telegram_id = ?", eventID, userID)
	return err
}

// ListParticipantIDs returns the Telegram IDs of all event participants,
// including the organizer's stub row if present.
func (r *SQLiteRepository) ListParticipantIDs(eventID string) ([]int, error) {
	rows, err := r.db.Query("SELECT telegram_id FROM participants WHERE event_id = ?", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
