package main

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventFlow(t *testing.T) {
	app, f := newTestApp(t)
	const userID, chatID = 100, 100

	app.handleCallback(callback(userID, chatID, "event:create"))
	sess, err := app.repo.GetSession(userID)
	require.NoError(t, err)
	assert.Equal(t, StateCreateEventName, sess.State)

	app.handleText(textMessage(userID, chatID, "GopherCon Afterparty"))

	organized, err := app.repo.ListOrganizerEvents(userID)
	require.NoError(t, err)
	require.Len(t, organized, 1)
	assert.Equal(t, "GopherCon Afterparty", organized[0].Name)

	// The organizer gets a participant row and the event becomes current.
	ids, err := app.repo.ListParticipantIDs(organized[0].ID)
	require.NoError(t, err)
	assert.Contains(t, ids, userID)
	current, err := app.repo.GetCurrentEvent(userID)
	require.NoError(t, err)
	assert.Equal(t, organized[0].ID, current)

	sess, err = app.repo.GetSession(userID)
	require.NoError(t, err)
	assert.False(t, sess.Active())
	assert.True(t, f.sawText("GopherCon Afterparty"), "event menu rendered")
}

func TestRegistrationFlow(t *testing.T) {
	app, f := newTestApp(t)
	ev := seedEvent(t, app, 100, "Go Meetup")
	const userID, chatID = 200, 200

	app.handleCallback(callback(userID, chatID, "event:open:"+ev.ID+":hub_joined"))
	sess, err := app.repo.GetSession(userID)
	require.NoError(t, err)
	assert.Equal(t, StateRegFullName, sess.State)
	assert.Equal(t, ev.ID, sess.EventID)

	// Too-short name re-prompts without advancing.
	app.handleText(textMessage(userID, chatID, "A"))
	sess, _ = app.repo.GetSession(userID)
	assert.Equal(t, StateRegFullName, sess.State)

	app.handleText(textMessage(userID, chatID, "Alice Smith"))
	sess, _ = app.repo.GetSession(userID)
	assert.Equal(t, StateRegPhone, sess.State)
	assert.Equal(t, "Alice Smith", sess.FullName)

	// Typed text is not a phone number; state and payload stay put.
	app.handleText(textMessage(userID, chatID, "+49 152 0000"))
	sess, _ = app.repo.GetSession(userID)
	assert.Equal(t, StateRegPhone, sess.State)
	assert.Equal(t, "Alice Smith", sess.FullName)

	// Someone else's contact is rejected.
	other := textMessage(userID, chatID, "")
	other.Contact = &tgbotapi.Contact{PhoneNumber: "+49 152 0000", UserID: 999}
	app.handleContact(other)
	sess, _ = app.repo.GetSession(userID)
	assert.Equal(t, StateRegPhone, sess.State)

	own := textMessage(userID, chatID, "")
	own.Contact = &tgbotapi.Contact{PhoneNumber: "+49 (152) 000-111", UserID: userID}
	app.handleContact(own)
	sess, _ = app.repo.GetSession(userID)
	assert.Equal(t, StateRegCompany, sess.State)
	assert.Equal(t, "+49152000111", sess.Phone)

	app.handleText(textMessage(userID, chatID, "ACME GmbH"))
	sess, _ = app.repo.GetSession(userID)
	assert.False(t, sess.Active())

	ok, err := app.repo.IsFullyRegistered(ev.ID, userID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, f.texts())
}

func TestCancelClearsAnyState(t *testing.T) {
	app, f := newTestApp(t)
	ev := seedEvent(t, app, 100, "Go Meetup")

	states := []Session{
		{State: StateCreateEventName},
		{State: StateRegPhone, EventID: ev.ID, FullName: "Alice"},
		{State: StateEditAgenda, EventID: ev.ID},
		{State: StateUploadPhotos, EventID: ev.ID},
	}
	for _, s := range states {
		require.NoError(t, app.repo.SetSession(42, s))
		app.handleText(textMessage(42, 42, "cancel"))
		out, err := app.repo.GetSession(42)
		require.NoError(t, err)
		assert.False(t, out.Active(), "state %q not cleared", s.State)
	}
	assert.True(t, f.sawText(app.ui.Text("cancelled")))
}

func TestNewFlowReplacesOldSession(t *testing.T) {
	app, _ := newTestApp(t)
	ev := seedEvent(t, app, 100, "Go Meetup")

	require.NoError(t, app.repo.SetSession(100, Session{State: StateRegPhone, EventID: ev.ID, FullName: "Stale"}))
	require.NoError(t, app.repo.SetCurrentEvent(100, ev.ID))
	app.handleCallback(callback(100, 100, "admin:agenda_edit"))

	sess, err := app.repo.GetSession(100)
	require.NoError(t, err)
	assert.Equal(t, StateEditAgenda, sess.State)
	assert.Empty(t, sess.FullName, "payload from the old flow must not leak")
}

func TestAdminStateRechecksOwnership(t *testing.T) {
	app, f := newTestApp(t)
	ev := seedEvent(t, app, 100, "Go Meetup")

	// User 200 somehow holds an admin edit state for an event they do not
	// own. The write must not happen.
	require.NoError(t, app.repo.SetSession(200, Session{State: StateEditAgenda, EventID: ev.ID}))
	app.handleText(textMessage(200, 200, "hostile agenda"))

	content, err := app.repo.GetContent(ev.ID)
	require.NoError(t, err)
	assert.Empty(t, content.Agenda)
	sess, _ := app.repo.GetSession(200)
	assert.False(t, sess.Active())
	assert.True(t, f.sawText(app.ui.Text("not_allowed")))
}

func TestAgendaAndTimeEditing(t *testing.T) {
	app, f := newTestApp(t)
	ev := seedEvent(t, app, 100, "Go Meetup")

	require.NoError(t, app.repo.SetSession(100, Session{State: StateEditAgenda, EventID: ev.ID}))
	app.handleText(textMessage(100, 100, "18:00 doors\n19:00 talks"))
	content, err := app.repo.GetContent(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "18:00 doors\n19:00 talks", content.Agenda)

	require.NoError(t, app.repo.SetSession(100, Session{State: StateSetTime, EventID: ev.ID}))
	app.handleText(textMessage(100, 100, "tomorrow evening"))
	sess, _ := app.repo.GetSession(100)
	assert.Equal(t, StateSetTime, sess.State, "invalid time re-prompts in place")
	assert.True(t, f.sawText(app.ui.Text("time_invalid_format")))

	app.handleText(textMessage(100, 100, "2026-10-01 18:30"))
	content, err = app.repo.GetContent(ev.ID)
	require.NoError(t, err)
	require.NotNil(t, content.EventTime)
	want := time.Date(2026, 10, 1, 18, 30, 0, 0, time.UTC)
	assert.True(t, want.Equal(*content.EventTime))
	sess, _ = app.repo.GetSession(100)
	assert.False(t, sess.Active())
}

func TestWifiEditing(t *testing.T) {
	app, f := newTestApp(t)
	ev := seedEvent(t, app, 100, "Go Meetup")
	require.NoError(t, app.repo.SetSession(100, Session{State: StateSetWifi, EventID: ev.ID}))

	app.handleText(textMessage(100, 100, "just the network name"))
	sess, _ := app.repo.GetSession(100)
	assert.Equal(t, StateSetWifi, sess.State)
	assert.True(t, f.sawText(app.ui.Text("wifi_invalid_format")))

	app.handleText(textMessage(100, 100, "SSID: guests\nPassword: short"))
	sess, _ = app.repo.GetSession(100)
	assert.Equal(t, StateSetWifi, sess.State)
	assert.True(t, f.sawText(app.ui.Text("wifi_invalid_password")))

	app.handleText(textMessage(100, 100, "SSID: guests\nPassword: longenough"))
	content, err := app.repo.GetContent(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "guests", content.WifiSSID)
	assert.Equal(t, "longenough", content.WifiPassword)
}

func TestMapPinFlow(t *testing.T) {
	app, f := newTestApp(t)
	ev := seedEvent(t, app, 100, "Go Meetup")
	require.NoError(t, app.repo.SetSession(100, Session{State: StateSetMapPin, EventID: ev.ID}))

	// Freeform text neither sets nor clears.
	app.handleText(textMessage(100, 100, "somewhere downtown"))
	sess, _ := app.repo.GetSession(100)
	assert.Equal(t, StateSetMapPin, sess.State)
	assert.True(t, f.sawText(app.ui.Text("map_pin_need_location")))

	loc := textMessage(100, 100, "")
	loc.Location = &tgbotapi.Location{Latitude: 52.52, Longitude: 13.4}
	app.handleLocation(loc)
	content, err := app.repo.GetContent(ev.ID)
	require.NoError(t, err)
	require.NotNil(t, content.PinLat)
	assert.InDelta(t, 52.52, *content.PinLat, 0.0001)

	require.NoError(t, app.repo.SetSession(100, Session{State: StateSetMapPin, EventID: ev.ID}))
	app.handleText(textMessage(100, 100, "clear"))
	content, err = app.repo.GetContent(ev.ID)
	require.NoError(t, err)
	assert.Nil(t, content.PinLat)
}

func TestUploadPhotosRepeats(t *testing.T) {
	app, _ := newTestApp(t)
	ev := seedEvent(t, app, 100, "Go Meetup")
	require.NoError(t, app.repo.SetSession(100, Session{State: StateUploadPhotos, EventID: ev.ID}))

	for _, fileID := range []string{"file-1", "file-2"} {
		msg := textMessage(100, 100, "")
		msg.Photo = &[]tgbotapi.PhotoSize{{FileID: "thumb"}, {FileID: fileID}}
		app.handlePhoto(msg)
	}

	photos, err := app.repo.ListPhotos(ev.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "file-1", photos[0].FileID, "largest size is taken, in order")
	sess, _ := app.repo.GetSession(100)
	assert.Equal(t, StateUploadPhotos, sess.State, "upload mode persists until Done")
}

func TestAskQuestionAndFeedbackComment(t *testing.T) {
	app, f := newTestApp(t)
	ev := seedEvent(t, app, 100, "Go Meetup")
	joinRegistered(t, app, ev.ID, 200)

	require.NoError(t, app.repo.SetSession(200, Session{State: StateAskQuestion, EventID: ev.ID}))
	app.handleText(textMessage(200, 200, "Will there be recordings?"))
	questions, err := app.repo.ListQuestions(ev.ID, 10)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.True(t, f.sawText(app.ui.Text("question_sent")))

	require.NoError(t, app.repo.UpsertFeedback(ev.ID, 200, 1, ""))
	require.NoError(t, app.repo.SetSession(200, Session{State: StateFeedbackComment, EventID: ev.ID, Rating: 1}))
	app.handleText(textMessage(200, 200, "great venue"))
	comments, err := app.repo.ListFeedbackComments(ev.ID, 10)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "great venue", comments[0].Comment)
}

func TestParseWifi(t *testing.T) {
	cases := []struct {
		in       string
		ssid     string
		password string
		ok       bool
	}{
		{"SSID: guests\nPassword: secret123", "guests", "secret123", true},
		{"ssid: guests\npassword: secret123", "guests", "secret123", true},
		{"Password: secret123\nSSID: guests", "guests", "secret123", true},
		{"SSID: guests", "guests", "", false},
		{"guests / secret123", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		ssid, password, ok := parseWifi(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.ssid, ssid)
			assert.Equal(t, tc.password, password)
		}
	}
}

func TestParseOrganizerInfo(t *testing.T) {
	info, ok := parseOrganizerInfo("Name: Jane Doe\nPhone: +1 555\nEmail: jane@x.io\nTelegram: @jane")
	require.True(t, ok)
	assert.Equal(t, organizerInfo{Name: "Jane Doe", Phone: "+1 555", Email: "jane@x.io", Telegram: "@jane"}, info)

	info, ok = parseOrganizerInfo("name: Jane")
	require.True(t, ok)
	assert.Equal(t, "Jane", info.Name)

	_, ok = parseOrganizerInfo("Phone: +1 555")
	assert.False(t, ok, "a Name line is required")

	_, ok = parseOrganizerInfo("Jane Doe")
	assert.False(t, ok)
}
