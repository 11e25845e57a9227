package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
)

// handleCommand processes slash commands. Command names come from the
// string table, so a deployment can rename them without a rebuild.
func (a *App) handleCommand(msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	cmd := msg.Command()

	switch cmd {
	case a.ui.Cmd("start"), "start":
		a.repo.ClearSession(userID)
		arg := strings.TrimSpace(msg.CommandArguments())
		if arg != "" {
			a.startFromInvite(msg, chatID, userID, arg)
			return
		}
		a.send(chatID, a.ui.Text("welcome"))

	case a.ui.Cmd("my_events"), "my_events":
		a.repo.ClearSession(userID)
		kb := a.kbHub(userID)
		a.sendKB(chatID, a.ui.Text("my_events_title"), kb)

	case a.ui.Cmd("help"), "help":
		a.send(chatID, a.ui.Text("help"))

	case a.ui.Cmd("cancel"), "cancel":
		a.cancelFlow(chatID, userID)

	default:
		a.send(chatID, a.ui.Text("unknown_action"))
	}
}

// startFromInvite handles /start with an event ID from an invite deep link.
func (a *App) startFromInvite(msg *tgbotapi.Message, chatID int64, userID int, eventID string) {
	ev, err := a.repo.GetEvent(eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("load event")
		return
	}
	if ev == nil {
		a.send(chatID, a.ui.Text("invalid_event_link"))
		return
	}
	a.openEvent(nil, chatID, userID, eventID, "hub_joined", msg.From)
}

// handleAdminAction serves the organizer-side menu tree. The organizer
// guard has already run.
func (a *App) handleAdminAction(cq *tgbotapi.CallbackQuery, ev *Event, act action) {
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID
	title := htmlEscape(ev.Name)

	switch act.kind {
	case actManage:
		kb := a.kbManage()
		a.editOrSend(cq, a.ui.Text("manage_title", "title", title), &kb)

	case actView:
		kb := a.kbViewMenu()
		a.editOrSend(cq, a.ui.Text("view_title", "title", title), &kb)

	case actFieldMenu:
		kb := a.kbFieldMenu(act.field, "admin:manage")
		a.editOrSend(cq, a.ui.Text(act.field+"_title", "title", title), &kb)

	case actFieldView:
		a.showFieldValue(cq, ev, act.field)

	case actFieldEdit:
		a.startFieldEdit(cq, ev, userID, act.field)

	case actMembers:
		members, err := a.repo.ListMembers(ev.ID)
		if err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("list members")
			return
		}
		members = withoutUser(members, ev.OrganizerID)
		kb := a.kbBack("admin:view")
		a.editOrSend(cq, a.ui.Text("members_title", "title", title, "value", a.renderMembers(members)), &kb)

	case actQuestions:
		questions, err := a.repo.ListQuestions(ev.ID, questionListLimit)
		if err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("list questions")
			return
		}
		kb := a.kbBack("admin:view")
		if len(questions) == 0 {
			a.editOrSend(cq, a.ui.Text("questions_none"), &kb)
			return
		}
		a.editOrSend(cq, a.ui.Text("questions_title", "title", title, "value", a.renderQuestions(questions)), &kb)

	case actFeedbackSummary:
		summary, err := a.repo.GetFeedbackSummary(ev.ID)
		if err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("feedback summary")
			return
		}
		comments, err := a.repo.ListFeedbackComments(ev.ID, commentListLimit)
		if err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("feedback comments")
			return
		}
		kb := a.kbBack("admin:view")
		a.editOrSend(cq, a.ui.Text("feedback_title", "title", title, "value", a.renderFeedback(summary, comments)), &kb)

	case actNotify:
		if err := a.repo.SetSession(userID, Session{State: StateNotify, EventID: ev.ID}); err != nil {
			log.Error().Err(err).Int("user_id", userID).Msg("save session")
			return
		}
		kb := a.kbCancel("admin:back_to_menu")
		a.editOrSend(cq, a.ui.Text("push_prompt", "title", title), &kb)

	case actAlertMenu:
		kb := a.kbAlertMenu()
		a.editOrSend(cq, a.ui.Text("alert_menu", "title", title), &kb)

	case actAlertSet:
		a.scheduleAlert(cq, ev, userID, act.minutes)

	case actPhotosMenu:
		kb := a.kbPhotosMenu()
		a.editOrSend(cq, a.ui.Text("photos_menu_title", "title", title), &kb)

	case actPhotosView:
		photos, err := a.repo.ListPhotos(ev.ID)
		if err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("list photos")
			return
		}
		kb := a.kbBack("admin:photos")
		if len(photos) == 0 {
			a.editOrSend(cq, a.ui.Text("no_photos_yet"), &kb)
			return
		}
		a.sendPhotos(chatID, photos)
		a.sendKB(chatID, a.ui.Text("sent_n_photos", "n", strconv.Itoa(len(photos))), kb)

	case actPhotosUpload:
		if err := a.repo.SetSession(userID, Session{State: StateUploadPhotos, EventID: ev.ID}); err != nil {
			log.Error().Err(err).Int("user_id", userID).Msg("save session")
			return
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("done"), "admin:photos_done"),
			),
		)
		a.editOrSend(cq, a.ui.Text("upload_mode_title"), &kb)

	case actPhotosDone:
		a.repo.ClearSession(userID)
		kb := a.kbPhotosMenu()
		a.editOrSend(cq, a.ui.Text("upload_mode_closed"), &kb)

	case actInvite:
		kb := a.kbBack("admin:back_to_menu")
		a.editOrSend(cq, a.ui.Text("invite_title", "title", title), &kb)
		a.sendInviteQR(chatID, ev)

	case actDeleteConfirm:
		kb := a.kbConfirm("admin:delete_yes", "admin:back_to_menu")
		a.editOrSend(cq, a.ui.Text("delete_confirm"), &kb)

	case actDeleteCommit:
		if err := a.repo.DeleteEvent(ev.ID); err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("delete event")
			return
		}
		a.scheduler.CancelEvent(ev.ID)
		a.repo.ClearSession(userID)
		a.repo.SetCurrentEvent(userID, "")
		kb := a.kbHub(userID)
		a.editOrSend(cq, a.ui.Text("event_deleted"), &kb)

	case actAdminBack:
		a.showEventMenu(cq, chatID, userID, ev.ID, "hub_admin")
	}
}

// showFieldValue renders the current value of one content field.
func (a *App) showFieldValue(cq *tgbotapi.CallbackQuery, ev *Event, field string) {
	content, err := a.repo.GetContent(ev.ID)
	if err != nil || content == nil {
		log.Error().Err(err).Str("event_id", ev.ID).Msg("load content")
		return
	}
	title := htmlEscape(ev.Name)
	var value string
	switch field {
	case "agenda":
		value = htmlEscape(orNotSet(content.Agenda))
	case "time":
		value = htmlEscape(displayEventTime(content.EventTime, a.loc))
	case "location":
		value = htmlEscape(orNotSet(content.Location))
	case "map_pin":
		value = "Not set"
		if content.PinLat != nil && content.PinLon != nil {
			value = fmt.Sprintf("<a href=\"https://maps.google.com/?q=%f,%f\">Open map pin</a>", *content.PinLat, *content.PinLon)
		}
	case "wifi":
		value = "Not set"
		if content.WifiSSID != "" && content.WifiPassword != "" {
			value = fmt.Sprintf("SSID: <b>%s</b>\nPassword: <b>%s</b>", htmlEscape(content.WifiSSID), htmlEscape(content.WifiPassword))
		}
	case "org":
		value = a.organizerInfoText(content)
	}
	kb := a.kbBack("admin:" + field)
	a.editOrSend(cq, a.ui.Text("current_"+field, "title", title, "value", value), &kb)
}

// startFieldEdit puts the organizer into the matching edit state and
// prompts with the field's current value where the template wants one.
func (a *App) startFieldEdit(cq *tgbotapi.CallbackQuery, ev *Event, userID int, field string) {
	content, err := a.repo.GetContent(ev.ID)
	if err != nil || content == nil {
		log.Error().Err(err).Str("event_id", ev.ID).Msg("load content")
		return
	}

	states := map[string]FlowState{
		"agenda":   StateEditAgenda,
		"time":     StateSetTime,
		"location": StateSetLocation,
		"map_pin":  StateSetMapPin,
		"wifi":     StateSetWifi,
		"org":      StateSetOrganizer,
	}
	if err := a.repo.SetSession(userID, Session{State: states[field], EventID: ev.ID}); err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("save session")
		return
	}

	title := htmlEscape(ev.Name)
	var current string
	switch field {
	case "time":
		current = htmlEscape(displayEventTime(content.EventTime, a.loc))
	case "location":
		current = htmlEscape(orNotSet(content.Location))
	}
	kb := a.kbCancel("admin:" + field)
	a.editOrSend(cq, a.ui.Text(field+"_set_prompt", "title", title, "current", current), &kb)
}

// scheduleAlert persists and arms a reminder N minutes before event time.
func (a *App) scheduleAlert(cq *tgbotapi.CallbackQuery, ev *Event, userID, minutes int) {
	content, err := a.repo.GetContent(ev.ID)
	if err != nil || content == nil {
		log.Error().Err(err).Str("event_id", ev.ID).Msg("load content")
		return
	}
	kb := a.kbAlertMenu()
	if content.EventTime == nil {
		a.editOrSend(cq, a.ui.Text("event_time_not_set"), &kb)
		return
	}
	fireAt := content.EventTime.Add(-time.Duration(minutes) * time.Minute)
	if _, err := a.scheduler.Schedule(ev.ID, fireAt, minutes, userID); err != nil {
		if err == ErrAlertInPast {
			a.editOrSend(cq, a.ui.Text("reminder_past"), &kb)
			return
		}
		log.Error().Err(err).Str("event_id", ev.ID).Msg("schedule alert")
		return
	}
	a.editOrSend(cq, a.ui.Text("reminder_scheduled",
		"when", fireAt.In(a.loc).Format(eventTimeLayout),
		"minutes", strconv.Itoa(minutes)), &kb)
}

// handleParticipantAction serves the participant-side menu tree.
func (a *App) handleParticipantAction(cq *tgbotapi.CallbackQuery, ev *Event, act action) {
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID
	title := htmlEscape(ev.Name)

	switch act.kind {
	case actInfo:
		content, err := a.repo.GetContent(ev.ID)
		if err != nil || content == nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("load content")
			return
		}
		a.sendEventInfo(cq, chatID, ev, content)

	case actAsk:
		if err := a.repo.SetSession(userID, Session{State: StateAskQuestion, EventID: ev.ID}); err != nil {
			log.Error().Err(err).Int("user_id", userID).Msg("save session")
			return
		}
		kb := a.kbCancel("p:back_to_menu")
		a.editOrSend(cq, a.ui.Text("ask_question_prompt", "title", title), &kb)

	case actFeedbackMenu:
		kb := a.kbRating()
		a.editOrSend(cq, a.ui.Text("rating_choose", "title", title), &kb)

	case actRate:
		// The rating is final right away; the comment step is optional and
		// an upsert later must not wipe a comment from a previous round.
		if err := a.repo.UpsertFeedback(ev.ID, userID, act.rating, ""); err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("save rating")
			return
		}
		if err := a.repo.SetSession(userID, Session{State: StateFeedbackComment, EventID: ev.ID, Rating: act.rating}); err != nil {
			log.Error().Err(err).Int("user_id", userID).Msg("save session")
			return
		}
		kb := a.kbFeedbackComment()
		a.editOrSend(cq, a.ui.Text("rating_saved_optional_comment"), &kb)

	case actFeedbackSkip:
		a.repo.ClearSession(userID)
		a.editOrSend(cq, a.ui.Text("feedback_saved"), nil)
		a.showEventMenu(nil, chatID, userID, ev.ID, "hub_joined")

	case actLeaveConfirm:
		if ok, _ := a.repo.IsOrganizer(ev.ID, userID); ok {
			a.editOrSend(cq, a.ui.Text("organizer_cant_leave"), nil)
			return
		}
		kb := a.kbConfirm("p:leave_yes", "p:back_to_menu")
		a.editOrSend(cq, a.ui.Text("leave_confirm"), &kb)

	case actLeaveCommit:
		// Checked again at commit time in case ownership changed between
		// the confirmation screen and the press.
		if ok, _ := a.repo.IsOrganizer(ev.ID, userID); ok {
			a.editOrSend(cq, a.ui.Text("organizer_cant_leave"), nil)
			return
		}
		if err := a.repo.RemoveParticipant(ev.ID, userID); err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("remove participant")
			return
		}
		a.repo.ClearSession(userID)
		a.repo.SetCurrentEvent(userID, "")
		kb := a.kbHub(userID)
		a.editOrSend(cq, a.ui.Text("left_event"), &kb)

	case actParticipantBack:
		a.showEventMenu(cq, chatID, userID, ev.ID, "hub_joined")

	default:
		a.editOrSend(cq, a.ui.Text("unknown_action"), nil)
	}
}

// withoutUser filters one Telegram ID out of a participant list.
func withoutUser(members []Participant, userID int) []Participant {
	out := members[:0:0]
	for _, m := range members {
		if m.TelegramID != userID {
			out = append(out, m)
		}
	}
	return out
}
