package main

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewSQLiteRepository(db)
	require.NoError(t, repo.CreateTables())
	return repo
}

func TestCreateAndGetEvent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))

	ev, err := repo.GetEvent("EV_1")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "Go Meetup", ev.Name)
	assert.Equal(t, 100, ev.OrganizerID)

	// The content row comes into existence with the event.
	content, err := repo.GetContent("EV_1")
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.Empty(t, content.Agenda)
	assert.Nil(t, content.EventTime)

	missing, err := repo.GetEvent("EV_nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIsOrganizer(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))

	ok, err := repo.IsOrganizer("EV_1", 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsOrganizer("EV_1", 200)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.IsOrganizer("EV_nope", 100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteEventCascades(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))
	require.NoError(t, repo.SetAgenda("EV_1", "Talks"))
	require.NoError(t, repo.EnsureParticipantStub("EV_1", 200, "alice", "Alice", ""))
	require.NoError(t, repo.AddPhoto("EV_1", "file-1", ""))
	require.NoError(t, repo.AddQuestion("EV_1", 200, "When is lunch?"))
	require.NoError(t, repo.UpsertFeedback("EV_1", 200, 1, "great"))
	_, err := repo.AddAlert("EV_1", time.Now().Add(time.Hour), 15, 100)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteEvent("EV_1"))

	ev, err := repo.GetEvent("EV_1")
	require.NoError(t, err)
	assert.Nil(t, ev)
	content, err := repo.GetContent("EV_1")
	require.NoError(t, err)
	assert.Nil(t, content)
	members, err := repo.ListMembers("EV_1")
	require.NoError(t, err)
	assert.Empty(t, members)
	photos, err := repo.ListPhotos("EV_1")
	require.NoError(t, err)
	assert.Empty(t, photos)
	questions, err := repo.ListQuestions("EV_1", 10)
	require.NoError(t, err)
	assert.Empty(t, questions)
	summary, err := repo.GetFeedbackSummary("EV_1")
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	alerts, err := repo.ListPendingAlerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestParticipantRegistrationLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))
	require.NoError(t, repo.EnsureParticipantStub("EV_1", 200, "@Alice", "Alice", "Smith"))

	ok, err := repo.IsFullyRegistered("EV_1", 200)
	require.NoError(t, err)
	assert.False(t, ok, "stub row must not count as registered")

	require.NoError(t, repo.SetRegistrationInfo("EV_1", 200, "Alice Smith", "+49 152 000", "ACME"))
	ok, err = repo.IsFullyRegistered("EV_1", 200)
	require.NoError(t, err)
	assert.True(t, ok)

	// Re-ensuring refreshes identity but keeps registration data.
	require.NoError(t, repo.EnsureParticipantStub("EV_1", 200, "alice_new", "Alice", "Smith"))
	members, err := repo.ListMembers("EV_1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice_new", members[0].Username)
	assert.Equal(t, "Alice Smith", members[0].FullName)
	assert.Equal(t, "+49152000", members[0].Phone)
	assert.Equal(t, "ACME", members[0].Company)

	// An empty username does not wipe the stored one.
	require.NoError(t, repo.EnsureParticipantStub("EV_1", 200, "", "Alice", "Smith"))
	members, err = repo.ListMembers("EV_1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice_new", members[0].Username)

	require.NoError(t, repo.RemoveParticipant("EV_1", 200))
	members, err = repo.ListMembers("EV_1")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestIsFullyRegisteredUnknownUser(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))
	ok, err := repo.IsFullyRegistered("EV_1", 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFeedbackUpsertKeepsComment(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))

	// Rating first, comment later, then a rating flip without a comment.
	require.NoError(t, repo.UpsertFeedback("EV_1", 200, 1, ""))
	require.NoError(t, repo.UpsertFeedback("EV_1", 200, 1, "loved the talks"))
	require.NoError(t, repo.UpsertFeedback("EV_1", 200, -1, ""))

	summary, err := repo.GetFeedbackSummary("EV_1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Up)
	assert.Equal(t, 1, summary.Down)
	assert.Equal(t, 1, summary.Total)

	comments, err := repo.ListFeedbackComments("EV_1", 10)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "loved the talks", comments[0].Comment)
	assert.Equal(t, -1, comments[0].Rating)
}

func TestFeedbackSummaryCounts(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))
	require.NoError(t, repo.UpsertFeedback("EV_1", 1, 1, ""))
	require.NoError(t, repo.UpsertFeedback("EV_1", 2, 1, ""))
	require.NoError(t, repo.UpsertFeedback("EV_1", 3, -1, ""))

	summary, err := repo.GetFeedbackSummary("EV_1")
	require.NoError(t, err)
	assert.Equal(t, FeedbackSummary{Up: 2, Down: 1, Total: 3}, summary)
}

func TestContentSetters(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))

	when := time.Date(2026, 10, 1, 18, 30, 0, 0, time.UTC)
	require.NoError(t, repo.SetTime("EV_1", &when))
	require.NoError(t, repo.SetLocation("EV_1", "Main Hall"))
	require.NoError(t, repo.SetWifi("EV_1", "guests", "secret123"))
	require.NoError(t, repo.SetOrganizerInfo("EV_1", "Jane", "+1", "j@x.io", "@jane"))
	require.NoError(t, repo.SetMapPin("EV_1", 52.5, 13.4))

	c, err := repo.GetContent("EV_1")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, c.EventTime)
	assert.True(t, when.Equal(*c.EventTime))
	assert.Equal(t, "Main Hall", c.Location)
	assert.Equal(t, "guests", c.WifiSSID)
	assert.Equal(t, "secret123", c.WifiPassword)
	assert.Equal(t, "Jane", c.OrganizerName)
	require.NotNil(t, c.PinLat)
	assert.InDelta(t, 52.5, *c.PinLat, 0.0001)

	require.NoError(t, repo.SetTime("EV_1", nil))
	require.NoError(t, repo.SetLocation("EV_1", ""))
	require.NoError(t, repo.ClearMapPin("EV_1"))

	c, err = repo.GetContent("EV_1")
	require.NoError(t, err)
	assert.Nil(t, c.EventTime)
	assert.Empty(t, c.Location)
	assert.Nil(t, c.PinLat)
	assert.Nil(t, c.PinLon)
}

func TestEventLists(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "First"))
	require.NoError(t, repo.CreateEvent("EV_2", 100, "Second"))
	require.NoError(t, repo.CreateEvent("EV_3", 300, "Other"))
	require.NoError(t, repo.EnsureParticipantStub("EV_3", 100, "u", "U", ""))

	organized, err := repo.ListOrganizerEvents(100)
	require.NoError(t, err)
	assert.Len(t, organized, 2)

	joined, err := repo.ListJoinedEvents(100)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, "EV_3", joined[0].ID)
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	s, err := repo.GetSession(42)
	require.NoError(t, err)
	assert.False(t, s.Active())

	in := Session{State: StateRegCompany, EventID: "EV_1", Src: "hub_joined", FullName: "Alice", Phone: "+49152"}
	require.NoError(t, repo.SetSession(42, in))
	out, err := repo.GetSession(42)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// A new flow replaces the old session wholesale.
	require.NoError(t, repo.SetSession(42, Session{State: StateCreateEventName}))
	out, err = repo.GetSession(42)
	require.NoError(t, err)
	assert.Equal(t, StateCreateEventName, out.State)
	assert.Empty(t, out.EventID)
	assert.Empty(t, out.FullName)

	// Writing the idle state clears the row.
	require.NoError(t, repo.SetSession(42, Session{}))
	out, err = repo.GetSession(42)
	require.NoError(t, err)
	assert.False(t, out.Active())

	require.NoError(t, repo.SetSession(42, Session{State: StateNotify, EventID: "EV_1"}))
	require.NoError(t, repo.ClearSession(42))
	out, err = repo.GetSession(42)
	require.NoError(t, err)
	assert.False(t, out.Active())
}

func TestCurrentEventPointer(t *testing.T) {
	repo := newTestRepo(t)

	eid, err := repo.GetCurrentEvent(42)
	require.NoError(t, err)
	assert.Empty(t, eid)

	require.NoError(t, repo.SetCurrentEvent(42, "EV_1"))
	eid, err = repo.GetCurrentEvent(42)
	require.NoError(t, err)
	assert.Equal(t, "EV_1", eid)

	require.NoError(t, repo.SetCurrentEvent(42, "EV_2"))
	eid, err = repo.GetCurrentEvent(42)
	require.NoError(t, err)
	assert.Equal(t, "EV_2", eid)

	require.NoError(t, repo.SetCurrentEvent(42, ""))
	eid, err = repo.GetCurrentEvent(42)
	require.NoError(t, err)
	assert.Empty(t, eid)
}

func TestAlertLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))

	fireAt := time.Date(2026, 10, 1, 18, 15, 0, 0, time.UTC)
	id, err := repo.AddAlert("EV_1", fireAt, 15, 100)
	require.NoError(t, err)
	require.NotZero(t, id)

	pending, err := repo.ListPendingAlerts()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Equal(t, "EV_1", pending[0].EventID)
	assert.Equal(t, 15, pending[0].MinutesBefore)
	assert.True(t, fireAt.Equal(pending[0].FireAt))
	assert.Equal(t, AlertScheduled, pending[0].Status)

	require.NoError(t, repo.MarkAlertSent(id))
	pending, err = repo.ListPendingAlerts()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPhotosOrderAndQuestions(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateEvent("EV_1", 100, "Go Meetup"))
	require.NoError(t, repo.AddPhoto("EV_1", "file-a", "opening"))
	require.NoError(t, repo.AddPhoto("EV_1", "file-b", ""))

	photos, err := repo.ListPhotos("EV_1")
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "file-a", photos[0].FileID)
	assert.Equal(t, "opening", photos[0].Caption)

	require.NoError(t, repo.AddQuestion("EV_1", 200, "Will slides be shared?"))
	questions, err := repo.ListQuestions("EV_1", 10)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Will slides be shared?", questions[0].Text)
	assert.Equal(t, "new", questions[0].Status)
	assert.Zero(t, questions[0].SenderID, "sender must stay hidden")
}
