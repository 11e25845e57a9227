package main

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
)

// Callback routing. Telegram gives us a flat string per button press; the
// router decodes it into a closed action set, resolves the event it applies
// to and dispatches with the caller's role checked fresh on every press.
// Stale or unknown tokens degrade to a hint instead of an error.

type actionKind int

const (
	actUnknown actionKind = iota
	actHub
	actHubAdmin
	actHubJoined
	actCreateEvent
	actOpenEvent
	actManage
	actView
	actFieldMenu
	actFieldView
	actFieldEdit
	actMembers
	actQuestions
	actFeedbackSummary
	actNotify
	actAlertMenu
	actAlertSet
	actPhotosMenu
	actPhotosView
	actPhotosUpload
	actPhotosDone
	actInvite
	actDeleteConfirm
	actDeleteCommit
	actAdminBack
	actInfo
	actAsk
	actFeedbackMenu
	actRate
	actFeedbackSkip
	actLeaveConfirm
	actLeaveCommit
	actParticipantBack
)

// action is the decoded form of one callback token. Only the fields the
// kind needs are set.
type action struct {
	kind    actionKind
	eventID string
	src     string
	field   string
	minutes int
	rating  int
}

var contentFields = map[string]bool{
	"agenda":   true,
	"time":     true,
	"location": true,
	"map_pin":  true,
	"wifi":     true,
	"org":      true,
}

// parseAction decodes a callback data string. Anything outside the known
// vocabulary comes back as actUnknown.
func parseAction(data string) action {
	parts := strings.Split(data, ":")
	switch parts[0] {
	case "hub":
		if len(parts) != 2 {
			return action{}
		}
		switch parts[1] {
		case "none":
			return action{kind: actHub}
		case "admin":
			return action{kind: actHubAdmin}
		case "joined":
			return action{kind: actHubJoined}
		}

	case "event":
		if len(parts) == 2 && parts[1] == "create" {
			return action{kind: actCreateEvent}
		}
		if len(parts) == 4 && parts[1] == "open" {
			return action{kind: actOpenEvent, eventID: parts[2], src: parts[3]}
		}

	case "admin":
		if len(parts) == 3 && parts[1] == "alert_set" {
			m, err := strconv.Atoi(parts[2])
			if err != nil || m <= 0 {
				return action{}
			}
			return action{kind: actAlertSet, minutes: m}
		}
		if len(parts) != 2 {
			return action{}
		}
		switch parts[1] {
		case "manage":
			return action{kind: actManage}
		case "view":
			return action{kind: actView}
		case "notify":
			return action{kind: actNotify}
		case "alert":
			return action{kind: actAlertMenu}
		case "invite":
			return action{kind: actInvite}
		case "delete":
			return action{kind: actDeleteConfirm}
		case "delete_yes":
			return action{kind: actDeleteCommit}
		case "back_to_menu":
			return action{kind: actAdminBack}
		case "members":
			return action{kind: actMembers}
		case "questions":
			return action{kind: actQuestions}
		case "feedback":
			return action{kind: actFeedbackSummary}
		case "photos":
			return action{kind: actPhotosMenu}
		case "photos_view":
			return action{kind: actPhotosView}
		case "photos_upload":
			return action{kind: actPhotosUpload}
		case "photos_done":
			return action{kind: actPhotosDone}
		}
		if contentFields[parts[1]] {
			return action{kind: actFieldMenu, field: parts[1]}
		}
		if field, found := strings.CutSuffix(parts[1], "_view"); found && contentFields[field] {
			return action{kind: actFieldView, field: field}
		}
		if field, found := strings.CutSuffix(parts[1], "_edit"); found && contentFields[field] {
			return action{kind: actFieldEdit, field: field}
		}

	case "p":
		if len(parts) == 3 && parts[1] == "rate" {
			r, err := strconv.Atoi(parts[2])
			if err != nil || (r != 1 && r != -1) {
				return action{}
			}
			return action{kind: actRate, rating: r}
		}
		if len(parts) != 2 {
			return action{}
		}
		switch parts[1] {
		case "info":
			return action{kind: actInfo}
		case "ask":
			return action{kind: actAsk}
		case "feedback":
			return action{kind: actFeedbackMenu}
		case "feedback_skip":
			return action{kind: actFeedbackSkip}
		case "leave":
			return action{kind: actLeaveConfirm}
		case "leave_yes":
			return action{kind: actLeaveCommit}
		case "back_to_menu":
			return action{kind: actParticipantBack}
		}
	}
	return action{}
}

// handleCallback is the button-press entry point.
func (a *App) handleCallback(cq *tgbotapi.CallbackQuery) {
	if _, err := a.bot.AnswerCallbackQuery(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Debug().Err(err).Msg("answer callback")
	}
	if cq.Message == nil || cq.From == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID

	act := parseAction(cq.Data)
	switch act.kind {
	case actUnknown:
		a.editOrSend(cq, a.ui.Text("unknown_action"), nil)
		return

	case actHub:
		a.repo.ClearSession(userID)
		a.renderHub(cq, userID)
		return
	case actHubAdmin:
		kb := a.kbHubListAdmin(userID)
		a.editOrSend(cq, a.ui.Text("events_you_organize"), &kb)
		return
	case actHubJoined:
		kb := a.kbHubListJoined(userID)
		a.editOrSend(cq, a.ui.Text("events_you_joined"), &kb)
		return
	case actCreateEvent:
		if err := a.repo.SetSession(userID, Session{State: StateCreateEventName}); err != nil {
			log.Error().Err(err).Int("user_id", userID).Msg("save session")
			return
		}
		kb := a.kbCancel("hub:none")
		a.editOrSend(cq, a.ui.Text("create_event_prompt"), &kb)
		return
	case actOpenEvent:
		a.openEvent(cq, chatID, userID, act.eventID, act.src, cq.From)
		return
	}

	// Everything below acts on the user's current event.
	ev := a.resolveCurrentEvent(cq, userID)
	if ev == nil {
		return
	}

	switch act.kind {
	case actManage, actView, actFieldMenu, actFieldView, actFieldEdit,
		actMembers, actQuestions, actFeedbackSummary, actNotify,
		actAlertMenu, actAlertSet, actPhotosMenu, actPhotosView,
		actPhotosUpload, actPhotosDone, actInvite,
		actDeleteConfirm, actDeleteCommit, actAdminBack:
		a.organizerOnly(a.handleAdminAction)(cq, ev, act)
	default:
		a.handleParticipantAction(cq, ev, act)
	}
}

// renderHub shows the top-level event chooser.
func (a *App) renderHub(cq *tgbotapi.CallbackQuery, userID int) {
	kb := a.kbHub(userID)
	a.editOrSend(cq, a.ui.Text("my_events_title"), &kb)
}

// resolveCurrentEvent loads the event the user is acting on. A dangling
// pointer to a deleted event is cleared and the user redirected to the hub.
func (a *App) resolveCurrentEvent(cq *tgbotapi.CallbackQuery, userID int) *Event {
	eid, err := a.repo.GetCurrentEvent(userID)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("load current event")
		return nil
	}
	if eid == "" {
		a.editOrSend(cq, a.ui.Text("choose_event_first"), nil)
		return nil
	}
	ev, err := a.repo.GetEvent(eid)
	if err != nil {
		log.Error().Err(err).Str("event_id", eid).Msg("load event")
		return nil
	}
	if ev == nil {
		a.repo.SetCurrentEvent(userID, "")
		a.editOrSend(cq, a.ui.Text("event_not_found"), nil)
		return nil
	}
	return ev
}

// openEvent enters an event from a hub list or an invite deep link. An
// unregistered non-organizer is pushed into the registration flow first.
func (a *App) openEvent(cq *tgbotapi.CallbackQuery, chatID int64, userID int, eventID, src string, from *tgbotapi.User) {
	ev, err := a.repo.GetEvent(eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("load event")
		return
	}
	if ev == nil {
		a.renderTo(cq, chatID, a.ui.Text("event_not_found"), nil)
		return
	}

	if err := a.repo.EnsureParticipantStub(eventID, userID, from.UserName, from.FirstName, from.LastName); err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("ensure participant")
		return
	}
	a.repo.SetCurrentEvent(userID, eventID)

	isOrganizer, _ := a.repo.IsOrganizer(eventID, userID)
	if !isOrganizer {
		registered, err := a.repo.IsFullyRegistered(eventID, userID)
		if err != nil {
			log.Error().Err(err).Str("event_id", eventID).Msg("check registration")
			return
		}
		if !registered {
			if err := a.repo.SetSession(userID, Session{State: StateRegFullName, EventID: eventID, Src: src}); err != nil {
				log.Error().Err(err).Int("user_id", userID).Msg("save session")
				return
			}
			a.renderTo(cq, chatID, a.ui.Text("reg_full_name_prompt"), nil)
			return
		}
	}
	a.showEventMenu(cq, chatID, userID, eventID, src)
}
