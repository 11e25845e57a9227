package main

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// The interaction FSM. Every inbound message is interpreted against the
// user's persisted session: the active state decides which input kind is
// accepted and what happens next. Invalid input re-prompts in place and
// never advances or clears the state; cancel always clears it.

func newEventID() string {
	return "EV_" + uuid.NewString()
}

// handleText advances the FSM on a freeform text message.
func (a *App) handleText(msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	// "cancel" typed as plain text works in every state.
	if strings.EqualFold(text, "cancel") || strings.EqualFold(text, "/"+a.ui.Cmd("cancel")) {
		a.cancelFlow(chatID, userID)
		return
	}

	sess, err := a.repo.GetSession(userID)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("load session")
		return
	}

	switch sess.State {
	case StateCreateEventName:
		a.stepCreateEvent(msg, chatID, userID, text)

	case StateRegFullName:
		a.stepRegFullName(chatID, userID, sess, text)

	case StateRegPhone:
		// Only a shared contact moves this state forward.
		a.sendKB(chatID, a.ui.Text("reg_phone_reject"), a.kbShareContact())

	case StateRegCompany:
		a.stepRegCompany(chatID, userID, sess, text)

	case StateEditAgenda:
		a.stepAdminWrite(chatID, userID, sess, func(eid string) (string, bool) {
			if err := a.repo.SetAgenda(eid, text); err != nil {
				return "", false
			}
			return "agenda_updated", true
		})

	case StateSetTime:
		a.stepSetTime(chatID, userID, sess, text)

	case StateSetLocation:
		a.stepAdminWrite(chatID, userID, sess, func(eid string) (string, bool) {
			loc := text
			if strings.EqualFold(loc, "clear") {
				loc = ""
			}
			if err := a.repo.SetLocation(eid, loc); err != nil {
				return "", false
			}
			return "location_updated", true
		})

	case StateSetMapPin:
		a.stepMapPinText(chatID, userID, sess, text)

	case StateSetWifi:
		a.stepSetWifi(chatID, userID, sess, text)

	case StateSetOrganizer:
		a.stepSetOrganizer(chatID, userID, sess, text)

	case StateUploadPhotos:
		a.send(chatID, a.ui.Text("upload_mode_title"))

	case StateNotify:
		a.stepNotify(chatID, userID, sess, text, "")

	case StateAskQuestion:
		a.stepAskQuestion(chatID, userID, sess, text)

	case StateFeedbackComment:
		a.stepFeedbackComment(chatID, userID, sess, text)

	default:
		// Nothing in progress; freeform text never mutates data.
		a.send(chatID, a.ui.Text("use_my_events_to_continue"))
	}
}

// cancelFlow is the one input valid in every state.
func (a *App) cancelFlow(chatID int64, userID int) {
	if err := a.repo.ClearSession(userID); err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("clear session")
	}
	a.sendKB(chatID, a.ui.Text("cancelled"), tgbotapi.ReplyKeyboardRemove{RemoveKeyboard: true})
}

func (a *App) stepCreateEvent(msg *tgbotapi.Message, chatID int64, userID int, text string) {
	if text == "" {
		a.send(chatID, a.ui.Text("create_event_invalid_name"))
		return
	}
	eventID := newEventID()
	if err := a.repo.CreateEvent(eventID, userID, text); err != nil {
		log.Error().Err(err).Msg("create event")
		a.send(chatID, a.ui.Text("not_allowed"))
		return
	}
	// The organizer gets a participant row too; recipient lists exclude
	// them by ID everywhere.
	if err := a.repo.EnsureParticipantStub(eventID, userID, msg.From.UserName, msg.From.FirstName, msg.From.LastName); err != nil {
		log.Error().Err(err).Msg("seed organizer participant")
	}
	a.repo.SetCurrentEvent(userID, eventID)
	a.repo.ClearSession(userID)
	a.showEventMenu(nil, chatID, userID, eventID, "hub_admin")
}

func (a *App) stepRegFullName(chatID int64, userID int, sess Session, text string) {
	ev, err := a.repo.GetEvent(sess.EventID)
	if err != nil || ev == nil {
		a.repo.ClearSession(userID)
		a.send(chatID, a.ui.Text("event_not_found"))
		return
	}
	if len([]rune(text)) < 2 {
		a.send(chatID, a.ui.Text("reg_name_invalid"))
		return
	}
	sess.FullName = text
	sess.State = StateRegPhone
	if err := a.repo.SetSession(userID, sess); err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("save session")
		return
	}
	a.sendKB(chatID, a.ui.Text("reg_phone_prompt"), a.kbShareContact())
}

func (a *App) stepRegCompany(chatID int64, userID int, sess Session, text string) {
	if len([]rune(text)) < 2 {
		a.send(chatID, a.ui.Text("reg_company_invalid"))
		return
	}
	if err := a.repo.SetRegistrationInfo(sess.EventID, userID, sess.FullName, sess.Phone, text); err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("save registration")
		return
	}
	a.repo.ClearSession(userID)
	a.sendKB(chatID, a.ui.Text("reg_saved"), tgbotapi.ReplyKeyboardRemove{RemoveKeyboard: true})
	src := sess.Src
	if src == "" {
		src = "hub_joined"
	}
	a.showEventMenu(nil, chatID, userID, sess.EventID, src)
}

// flowEventID resolves which event a flow step applies to. The payload's
// event takes precedence over the current-event pointer.
func (a *App) flowEventID(sess Session, userID int) string {
	if sess.EventID != "" {
		return sess.EventID
	}
	eid, _ := a.repo.GetCurrentEvent(userID)
	return eid
}

// stepAdminWrite runs a terminal organizer-only write step: ownership is
// re-checked against the flow's event before anything is written.
func (a *App) stepAdminWrite(chatID int64, userID int, sess Session, write func(eventID string) (confirmKey string, ok bool)) {
	eid := a.flowEventID(sess, userID)
	if ok, err := a.repo.IsOrganizer(eid, userID); err != nil || !ok {
		a.repo.ClearSession(userID)
		a.send(chatID, a.ui.Text("not_allowed"))
		return
	}
	key, ok := write(eid)
	if !ok {
		log.Error().Str("event_id", eid).Msg("content write failed")
		a.send(chatID, a.ui.Text("not_allowed"))
		return
	}
	a.repo.ClearSession(userID)
	a.send(chatID, a.ui.Text(key))
	a.showEventMenu(nil, chatID, userID, eid, "hub_admin")
}

func (a *App) stepSetTime(chatID int64, userID int, sess Session, text string) {
	t, ok := parseEventTime(text, a.loc)
	if !ok {
		a.send(chatID, a.ui.Text("time_invalid_format"))
		return
	}
	a.stepAdminWrite(chatID, userID, sess, func(eid string) (string, bool) {
		if err := a.repo.SetTime(eid, &t); err != nil {
			return "", false
		}
		return "time_updated", true
	})
}

func (a *App) stepMapPinText(chatID int64, userID int, sess Session, text string) {
	if strings.EqualFold(text, "clear") {
		a.stepAdminWrite(chatID, userID, sess, func(eid string) (string, bool) {
			if err := a.repo.ClearMapPin(eid); err != nil {
				return "", false
			}
			return "map_pin_removed", true
		})
		return
	}
	// Anything but a location or "clear" re-prompts without a state change.
	a.send(chatID, a.ui.Text("map_pin_need_location"))
}

func (a *App) stepSetWifi(chatID int64, userID int, sess Session, text string) {
	ssid, password, ok := parseWifi(text)
	if !ok {
		a.send(chatID, a.ui.Text("wifi_invalid_format"))
		return
	}
	if len(password) < 8 {
		a.send(chatID, a.ui.Text("wifi_invalid_password"))
		return
	}
	a.stepAdminWrite(chatID, userID, sess, func(eid string) (string, bool) {
		if err := a.repo.SetWifi(eid, ssid, password); err != nil {
			return "", false
		}
		return "wifi_updated", true
	})
}

func (a *App) stepSetOrganizer(chatID int64, userID int, sess Session, text string) {
	info, ok := parseOrganizerInfo(text)
	if !ok {
		a.send(chatID, a.ui.Text("org_invalid_format"))
		return
	}
	a.stepAdminWrite(chatID, userID, sess, func(eid string) (string, bool) {
		if err := a.repo.SetOrganizerInfo(eid, info.Name, info.Phone, info.Email, info.Telegram); err != nil {
			return "", false
		}
		return "org_updated", true
	})
}

func (a *App) stepNotify(chatID int64, userID int, sess Session, text, photoFileID string) {
	eid := a.flowEventID(sess, userID)
	if ok, err := a.repo.IsOrganizer(eid, userID); err != nil || !ok {
		a.repo.ClearSession(userID)
		a.send(chatID, a.ui.Text("not_allowed"))
		return
	}
	a.runBroadcast(chatID, eid, text, photoFileID)
	a.repo.ClearSession(userID)
	a.showEventMenu(nil, chatID, userID, eid, "hub_admin")
}

func (a *App) stepAskQuestion(chatID int64, userID int, sess Session, text string) {
	ev, err := a.repo.GetEvent(sess.EventID)
	if err != nil || ev == nil {
		a.repo.ClearSession(userID)
		a.send(chatID, a.ui.Text("event_not_found"))
		return
	}
	if err := a.repo.AddQuestion(sess.EventID, userID, text); err != nil {
		log.Error().Err(err).Msg("save question")
		return
	}
	a.repo.ClearSession(userID)
	a.send(chatID, a.ui.Text("question_sent"))
	a.showEventMenu(nil, chatID, userID, sess.EventID, "hub_joined")
}

func (a *App) stepFeedbackComment(chatID int64, userID int, sess Session, text string) {
	if text == "" {
		a.send(chatID, a.ui.Text("comment_empty"))
		return
	}
	if err := a.repo.UpsertFeedback(sess.EventID, userID, sess.Rating, text); err != nil {
		log.Error().Err(err).Msg("save feedback comment")
		return
	}
	a.repo.ClearSession(userID)
	a.send(chatID, a.ui.Text("comment_saved"))
	a.showEventMenu(nil, chatID, userID, sess.EventID, "hub_joined")
}

// handleContact advances the phone registration step. Contacts are ignored
// in every other state.
func (a *App) handleContact(msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	sess, err := a.repo.GetSession(userID)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("load session")
		return
	}
	if sess.State != StateRegPhone {
		return
	}

	// The contact must belong to the sender.
	if msg.Contact.UserID != 0 && msg.Contact.UserID != userID {
		a.sendKB(chatID, a.ui.Text("share_own_contact"), a.kbShareContact())
		return
	}
	phone := normPhone(msg.Contact.PhoneNumber)
	if phone == "" {
		a.sendKB(chatID, a.ui.Text("phone_read_fail"), a.kbShareContact())
		return
	}

	sess.Phone = phone
	sess.State = StateRegCompany
	if err := a.repo.SetSession(userID, sess); err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("save session")
		return
	}
	a.sendKB(chatID, a.ui.Text("reg_company_prompt"), tgbotapi.ReplyKeyboardRemove{RemoveKeyboard: true})
}

// handleLocation advances the map pin step. Locations are ignored in every
// other state.
func (a *App) handleLocation(msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	sess, err := a.repo.GetSession(userID)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("load session")
		return
	}
	if sess.State != StateSetMapPin {
		return
	}

	lat, lon := msg.Location.Latitude, msg.Location.Longitude
	a.stepAdminWrite(chatID, userID, sess, func(eid string) (string, bool) {
		if err := a.repo.SetMapPin(eid, lat, lon); err != nil {
			return "", false
		}
		return "map_pin_saved", true
	})
}

// handlePhoto stores photos during upload mode and carries photo broadcasts;
// photos outside a flow just get a hint.
func (a *App) handlePhoto(msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	sess, err := a.repo.GetSession(userID)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("load session")
		return
	}

	sizes := *msg.Photo
	fileID := sizes[len(sizes)-1].FileID

	switch sess.State {
	case StateUploadPhotos:
		eid := a.flowEventID(sess, userID)
		if ok, err := a.repo.IsOrganizer(eid, userID); err != nil || !ok {
			a.repo.ClearSession(userID)
			a.send(chatID, a.ui.Text("not_allowed"))
			return
		}
		if err := a.repo.AddPhoto(eid, fileID, msg.Caption); err != nil {
			log.Error().Err(err).Str("event_id", eid).Msg("save photo")
			return
		}
		// Upload mode is repeatable; only the Done button ends it.
		a.send(chatID, a.ui.Text("photo_saved_send_more"))

	case StateNotify:
		a.stepNotify(chatID, userID, sess, msg.Caption, fileID)

	default:
		a.send(chatID, a.ui.Text("photo_received_use_photos"))
	}
}

// parseWifi extracts the SSID and Password lines from wifi input.
func parseWifi(text string) (ssid, password string, ok bool) {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "ssid:") {
			ssid = strings.TrimSpace(line[len("ssid:"):])
		}
		if strings.HasPrefix(lower, "password:") {
			password = strings.TrimSpace(line[len("password:"):])
		}
	}
	return ssid, password, ssid != "" && password != ""
}

type organizerInfo struct {
	Name     string
	Phone    string
	Email    string
	Telegram string
}

// parseOrganizerInfo extracts labelled organizer contact lines. Only the
// Name line is required.
func parseOrganizerInfo(text string) (organizerInfo, bool) {
	var info organizerInfo
	for _, line := range strings.Split(text, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		value := strings.TrimSpace(parts[1])
		switch strings.ToLower(strings.TrimSpace(parts[0])) {
		case "name":
			info.Name = value
		case "phone":
			info.Phone = value
		case "email":
			info.Email = value
		case "telegram":
			info.Telegram = value
		}
	}
	return info, info.Name != ""
}
