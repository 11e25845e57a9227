package main

import "time"

// Event represents an event record. The ID doubles as the invite credential,
// so it must be unguessable.
type Event struct {
	ID          string    // ID is the opaque event identifier (EV_<uuid>).
	Name        string    // Name is the event name shown to users.
	OrganizerID int       // OrganizerID is the Telegram ID of the event organizer.
	CreatedAt   time.Time // CreatedAt is when the event was created.
}

// EventContent holds the editable content of an event. Every field is
// optional; the row is created empty alongside the event.
type EventContent struct {
	EventID           string
	Agenda            string
	WifiSSID          string
	WifiPassword      string
	OrganizerName     string
	OrganizerPhone    string
	OrganizerEmail    string
	OrganizerTelegram string
	EventTime         *time.Time // nil means not set
	Location          string
	PinLat            *float64 // map pin, nil means not set
	PinLon            *float64
}

// Participant is one user joined to one event. A row starts as a stub with
// identity fields only and counts as fully registered once FullName, Phone
// and Company are all non-empty.
type Participant struct {
	EventID      string
	TelegramID   int
	Username     string
	FirstName    string
	LastName     string
	FullName     string
	Phone        string
	Company      string
	RegisteredAt time.Time
}

// FullyRegistered reports whether the participant finished the registration flow.
func (p Participant) FullyRegistered() bool {
	return p.FullName != "" && p.Phone != "" && p.Company != ""
}

// Photo is one uploaded event photo. Photos are append-only.
type Photo struct {
	EventID    string
	FileID     string // Telegram file reference
	Caption    string
	UploadedAt time.Time
}

// Question is an anonymous question sent to the organizer. The sender ID is
// stored but never shown.
type Question struct {
	ID        int64
	EventID   string
	SenderID  int
	Text      string
	CreatedAt time.Time
	Status    string // "new" on insert; informational only
}

// Feedback is one user's rating of an event, optionally with a comment.
// One row per (event, user); ratings overwrite, comments are kept unless a
// non-empty replacement arrives.
type Feedback struct {
	EventID    string
	TelegramID int
	Rating     int // +1 or -1
	Comment    string
	CreatedAt  time.Time
}

// FeedbackSummary aggregates ratings for an event.
type FeedbackSummary struct {
	Up    int
	Down  int
	Total int
}

// Alert statuses. An alert is marked sent exactly once, either by firing or
// by being found past-due at startup.
const (
	AlertScheduled = "scheduled"
	AlertSent      = "sent"
)

// Alert is a persisted future reminder for an event.
type Alert struct {
	ID            int64
	EventID       string
	FireAt        time.Time
	MinutesBefore int
	CreatedBy     int
	Status        string
}

// FlowState names one step of a guided input flow. A user has at most one
// active state; the empty value means idle.
type FlowState string

const (
	StateNone            FlowState = ""
	StateCreateEventName FlowState = "create_event_name"
	StateRegFullName     FlowState = "reg_full_name"
	StateRegPhone        FlowState = "reg_phone"
	StateRegCompany      FlowState = "reg_company"
	StateEditAgenda      FlowState = "admin_edit_agenda"
	StateSetTime         FlowState = "admin_set_time"
	StateSetLocation     FlowState = "admin_set_location"
	StateSetWifi         FlowState = "admin_set_wifi"
	StateSetOrganizer    FlowState = "admin_set_org"
	StateSetMapPin       FlowState = "admin_set_map_pin"
	StateUploadPhotos    FlowState = "admin_upload_photos"
	StateNotify          FlowState = "admin_notify_text"
	StateAskQuestion     FlowState = "p_ask_question"
	StateFeedbackComment FlowState = "p_feedback_comment"
)

// Session is the persisted flow position of one user. Only the fields the
// active state needs are set; starting a new flow always replaces the whole
// session rather than merging into it.
type Session struct {
	State    FlowState `json:"-"`
	EventID  string    `json:"event_id,omitempty"`
	Src      string    `json:"src,omitempty"`
	FullName string    `json:"full_name,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Rating   int       `json:"rating,omitempty"`
}

// Active reports whether a flow is in progress.
func (s Session) Active() bool { return s.State != StateNone }
