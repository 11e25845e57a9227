package main

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
)

const (
	membersListLimit  = 60
	questionListLimit = 30
	commentListLimit  = 10
)

// showEventMenu renders the per-event action menu and makes the event the
// user's current one. cq may be nil when called from a message flow.
func (a *App) showEventMenu(cq *tgbotapi.CallbackQuery, chatID int64, userID int, eventID, src string) {
	ev, err := a.repo.GetEvent(eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("load event")
		return
	}
	if ev == nil {
		a.renderTo(cq, chatID, a.ui.Text("event_not_found"), nil)
		return
	}
	if err := a.repo.SetCurrentEvent(userID, eventID); err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("set current event")
	}

	isOrganizer, _ := a.repo.IsOrganizer(eventID, userID)
	role := "Participant"
	if isOrganizer {
		role = "Organizer"
	}
	kb := a.kbEventMenu(ev, userID, src)
	a.renderTo(cq, chatID, a.ui.Text("entered_event", "title", htmlEscape(ev.Name), "role", role), &kb)
}

// renderTo edits the callback message when there is one, otherwise sends.
func (a *App) renderTo(cq *tgbotapi.CallbackQuery, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if cq != nil {
		a.editOrSend(cq, text, markup)
		return
	}
	if markup != nil {
		a.sendKB(chatID, text, *markup)
	} else {
		a.send(chatID, text)
	}
}

// buildEventInfoText composes the participant-facing event card.
func (a *App) buildEventInfoText(ev *Event, content *EventContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ℹ️ <b>%s</b>\n\n", htmlEscape(ev.Name))
	fmt.Fprintf(&b, "🕒 Time: <b>%s</b>\n", htmlEscape(displayEventTime(content.EventTime, a.loc)))
	fmt.Fprintf(&b, "📍 Location: <b>%s</b>\n", htmlEscape(orNotSet(content.Location)))

	mapLine := "Not set"
	if content.PinLat != nil && content.PinLon != nil {
		mapLine = fmt.Sprintf("<a href=\"https://maps.google.com/?q=%f,%f\">Open map pin</a>", *content.PinLat, *content.PinLon)
	}
	fmt.Fprintf(&b, "🗺 Map: %s\n\n", mapLine)

	agenda := "Not available yet."
	if strings.TrimSpace(content.Agenda) != "" {
		agenda = htmlEscape(content.Agenda)
	}
	fmt.Fprintf(&b, "📅 <b>Agenda</b>\n%s\n\n", agenda)

	fmt.Fprintf(&b, "👤 <b>Organizer</b>\n%s\n", a.organizerInfoText(content))

	wifi := "Not available yet."
	if content.WifiSSID != "" && content.WifiPassword != "" {
		wifi = fmt.Sprintf("SSID: <b>%s</b>\nPassword: <b>%s</b>", htmlEscape(content.WifiSSID), htmlEscape(content.WifiPassword))
	}
	fmt.Fprintf(&b, "📶 <b>WiFi</b>\n%s\n", wifi)
	return b.String()
}

func (a *App) organizerInfoText(content *EventContent) string {
	orNA := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "N/A"
		}
		return htmlEscape(s)
	}
	return fmt.Sprintf(
		"Name: <b>%s</b>\nPhone: <b>%s</b>\nEmail: <b>%s</b>\nTelegram: <b>%s</b>\n",
		orNA(content.OrganizerName), orNA(content.OrganizerPhone),
		orNA(content.OrganizerEmail), orNA(content.OrganizerTelegram),
	)
}

// sendEventInfo delivers the stored photos followed by the event card.
func (a *App) sendEventInfo(cq *tgbotapi.CallbackQuery, chatID int64, ev *Event, content *EventContent) {
	photos, err := a.repo.ListPhotos(ev.ID)
	if err != nil {
		log.Error().Err(err).Str("event_id", ev.ID).Msg("list photos")
	}
	info := a.buildEventInfoText(ev, content)

	if len(photos) == 0 {
		kb := a.kbBack("p:back_to_menu")
		a.renderTo(cq, chatID, info, &kb)
		return
	}
	a.sendPhotos(chatID, photos)
	kb := a.kbBack("p:back_to_menu")
	a.renderTo(cq, chatID, clampCaption(info), &kb)
}

// sendPhotos delivers stored photos one by one, first caption included.
func (a *App) sendPhotos(chatID int64, photos []Photo) {
	for _, p := range photos {
		cfg := tgbotapi.NewPhotoShare(chatID, p.FileID)
		cfg.Caption = p.Caption
		if _, err := a.bot.Send(cfg); err != nil {
			log.Warn().Err(err).Int64("chat_id", chatID).Msg("photo send failed")
		}
	}
}

// renderMembers formats the member list for the organizer view.
func (a *App) renderMembers(members []Participant) string {
	if len(members) == 0 {
		return a.ui.Text("members_none")
	}
	if len(members) > membersListLimit {
		members = members[:membersListLimit]
	}
	var lines []string
	for i, m := range members {
		name := strings.TrimSpace(m.FullName)
		if name == "" {
			name = strings.TrimSpace(strings.TrimSpace(m.FirstName) + " " + strings.TrimSpace(m.LastName))
		}
		var ident []string
		if m.Username != "" {
			ident = append(ident, "@"+htmlEscape(m.Username))
		}
		if name != "" {
			ident = append(ident, htmlEscape(name))
		}
		if m.Company != "" {
			ident = append(ident, htmlEscape(m.Company))
		}
		if m.Phone != "" {
			ident = append(ident, htmlEscape(m.Phone))
		}
		if len(ident) == 0 {
			ident = append(ident, fmt.Sprintf("ID:%d", m.TelegramID))
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.Join(ident, " • ")))
	}
	return strings.Join(lines, "\n")
}

// renderQuestions formats the anonymous question list. Senders stay hidden.
func (a *App) renderQuestions(questions []Question) string {
	var lines []string
	for _, q := range questions {
		ts := q.CreatedAt.In(a.loc).Format("2006-01-02 15:04:05")
		lines = append(lines, fmt.Sprintf("• <b>%s</b>: %s", ts, htmlEscape(q.Text)))
	}
	return strings.Join(lines, "\n")
}

// renderFeedback formats the feedback summary plus the latest comments.
func (a *App) renderFeedback(summary FeedbackSummary, comments []Feedback) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👍 Positive: <b>%d</b>\n👎 Negative: <b>%d</b>\nTotal ratings: <b>%d</b>\n",
		summary.Up, summary.Down, summary.Total)
	if len(comments) > 0 {
		b.WriteString("\n<b>Recent comments:</b>\n")
		for _, c := range comments {
			emoji := "👍"
			if c.Rating == -1 {
				emoji = "👎"
			}
			fmt.Fprintf(&b, "%s %s\n", emoji, htmlEscape(c.Comment))
		}
	}
	return b.String()
}
