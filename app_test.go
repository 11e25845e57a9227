package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// fakeSender records outbound Telegram calls instead of hitting the API.
// Chats listed in fail reject deliveries, which is how broadcast failure
// handling is exercised.
type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	fail     map[int64]bool
	answered int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[chatOf(c)] {
		return tgbotapi.Message{}, errors.New("chat blocked")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) AnswerCallbackQuery(cfg tgbotapi.CallbackConfig) (tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered++
	return tgbotapi.APIResponse{Ok: true}, nil
}

func chatOf(c tgbotapi.Chattable) int64 {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.ChatID
	case tgbotapi.PhotoConfig:
		return v.ChatID
	case tgbotapi.EditMessageTextConfig:
		return v.ChatID
	}
	return 0
}

// texts returns the text of every recorded message and edit, in order.
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch v := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, v.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, v.Text)
		}
	}
	return out
}

func (f *fakeSender) lastText() string {
	ts := f.texts()
	if len(ts) == 0 {
		return ""
	}
	return ts[len(ts)-1]
}

func (f *fakeSender) sawText(sub string) bool {
	for _, t := range f.texts() {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

// newTestApp builds an App over an in-memory database and a recording
// sender. Broadcast pauses are disabled.
func newTestApp(t *testing.T) (*App, *fakeSender) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteRepository(db)
	require.NoError(t, repo.CreateTables())

	f := &fakeSender{fail: make(map[int64]bool)}
	app := NewApp(f, repo, LoadUI("no-such-strings.json"), time.UTC, "companion_test_bot")
	app.broadcaster.sleep = func(time.Duration) {}
	return app, f
}

func textMessage(userID int, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: fmt.Sprintf("user%d", userID), FirstName: "Test"},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
}

func commandMessage(userID int, chatID int64, text string) *tgbotapi.Message {
	m := textMessage(userID, chatID, text)
	m.Entities = &[]tgbotapi.MessageEntity{{
		Type:   "bot_command",
		Offset: 0,
		Length: len(strings.Fields(text)[0]),
	}}
	return m
}

func callback(userID int, chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: userID, UserName: fmt.Sprintf("user%d", userID)},
		Message: &tgbotapi.Message{
			MessageID: 1,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
		Data: data,
	}
}

// seedEvent creates an event with its organizer stub row.
func seedEvent(t *testing.T, app *App, organizerID int, name string) *Event {
	t.Helper()
	id := newEventID()
	require.NoError(t, app.repo.CreateEvent(id, organizerID, name))
	require.NoError(t, app.repo.EnsureParticipantStub(id, organizerID, "boss", "Boss", ""))
	ev, err := app.repo.GetEvent(id)
	require.NoError(t, err)
	require.NotNil(t, ev)
	return ev
}

// joinRegistered adds a fully registered participant to an event.
func joinRegistered(t *testing.T, app *App, eventID string, userID int) {
	t.Helper()
	require.NoError(t, app.repo.EnsureParticipantStub(eventID, userID, fmt.Sprintf("user%d", userID), "Test", ""))
	require.NoError(t, app.repo.SetRegistrationInfo(eventID, userID, "Full Name", "+4915200000000", "ACME"))
}

func TestHandleUpdateSurvivesNilMessage(t *testing.T) {
	app, _ := newTestApp(t)
	app.HandleUpdate(tgbotapi.Update{UpdateID: 1})
}

func TestIdleTextGetsHint(t *testing.T) {
	app, f := newTestApp(t)
	app.HandleUpdate(tgbotapi.Update{UpdateID: 2, Message: textMessage(1, 1, "hello there")})
	require.True(t, f.sawText(app.ui.Text("use_my_events_to_continue")))
}
