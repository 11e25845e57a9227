package main

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
)

// Sender is the slice of the Telegram API the bot needs for outbound calls.
// *tgbotapi.BotAPI satisfies it; tests use a recording fake.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	AnswerCallbackQuery(config tgbotapi.CallbackConfig) (tgbotapi.APIResponse, error)
}

// App wires the bot together: transport, store, string table, broadcaster
// and alert scheduler. One App serves the whole update loop.
type App struct {
	bot         Sender
	repo        Repository
	ui          *UI
	loc         *time.Location
	botName     string
	broadcaster *Broadcaster
	scheduler   *AlertScheduler
}

// NewApp builds the application around an authorized bot and an initialized
// repository.
func NewApp(bot Sender, repo Repository, ui *UI, loc *time.Location, botName string) *App {
	a := &App{
		bot:     bot,
		repo:    repo,
		ui:      ui,
		loc:     loc,
		botName: botName,
	}
	a.broadcaster = NewBroadcaster(bot, repo)
	a.scheduler = NewAlertScheduler(repo, a.deliverAlert)
	return a
}

// HandleUpdate processes one inbound update. It is the outer error
// boundary: anything unexpected is logged and the update dropped, the
// process keeps serving.
func (a *App) HandleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("update_id", update.UpdateID).Msg("update dropped")
		}
	}()

	if update.CallbackQuery != nil {
		a.handleCallback(update.CallbackQuery)
		return
	}
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	switch {
	case msg.IsCommand():
		a.handleCommand(msg)
	case msg.Contact != nil:
		a.handleContact(msg)
	case msg.Location != nil:
		a.handleLocation(msg)
	case msg.Photo != nil && len(*msg.Photo) > 0:
		a.handlePhoto(msg)
	default:
		a.handleText(msg)
	}
}

// send delivers a plain HTML message to a chat.
func (a *App) send(chatID int64, text string) {
	a.sendKB(chatID, text, nil)
}

// sendKB delivers an HTML message with an optional reply markup.
func (a *App) sendKB(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := a.bot.Send(msg); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

// editOrSend prefers editing the message a callback came from, falling back
// to a fresh message. All router-driven renders go through here.
func (a *App) editOrSend(cq *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if text == "" {
		text = "…"
	}
	if cq != nil && cq.Message != nil {
		edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, text)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.DisableWebPagePreview = true
		edit.ReplyMarkup = markup
		if _, err := a.bot.Send(edit); err == nil {
			return
		}
		if markup != nil {
			a.sendKB(cq.Message.Chat.ID, text, *markup)
		} else {
			a.send(cq.Message.Chat.ID, text)
		}
	}
}
