package main

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
)

// callbackAction handles one decoded button press against a resolved event.
type callbackAction func(cq *tgbotapi.CallbackQuery, ev *Event, act action)

// organizerOnly admits an action only for the event's organizer. The role
// is read from the store on every press, so a forged or leftover admin
// token from a non-organizer goes nowhere.
func (a *App) organizerOnly(next callbackAction) callbackAction {
	return func(cq *tgbotapi.CallbackQuery, ev *Event, act action) {
		ok, err := a.repo.IsOrganizer(ev.ID, cq.From.ID)
		if err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("organizer check")
			return
		}
		if !ok {
			a.editOrSend(cq, a.ui.Text("not_allowed"), nil)
			return
		}
		next(cq, ev, act)
	}
}
