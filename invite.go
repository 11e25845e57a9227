package main

import (
	"fmt"
	"net/url"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// The event ID is the invite credential: anyone holding the deep link can
// join. There is no separate invite token.

// inviteLink builds the deep link that joins an event.
func inviteLink(botName, eventID string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botName, eventID)
}

// shareURL wraps an invite link in Telegram's share dialog URL.
func shareURL(link string) string {
	v := url.Values{}
	v.Set("url", link)
	v.Set("text", "")
	return "https://t.me/share/url?" + v.Encode()
}

// sendInviteQR sends the invite link as a scannable QR code photo.
func (a *App) sendInviteQR(chatID int64, ev *Event) {
	link := inviteLink(a.botName, ev.ID)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		log.Warn().Err(err).Str("event_id", ev.ID).Msg("QR encode failed")
		a.send(chatID, link)
		return
	}
	photo := tgbotapi.NewPhotoUpload(chatID, tgbotapi.FileBytes{
		Name:  "invite_" + ev.ID + ".png",
		Bytes: png,
	})
	photo.Caption = link
	if _, err := a.bot.Send(photo); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("QR send failed")
	}
}
