package main

import (
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
)

const (
	broadcastBatchSize = 25
	broadcastDelay     = time.Second
)

// Broadcaster fans one message out to every participant of an event, in
// batches with a pause between them to stay inside Telegram's rate limits.
type Broadcaster struct {
	bot  Sender
	repo Repository

	batchSize int
	delay     time.Duration
	sleep     func(time.Duration)
}

// BroadcastResult counts per-recipient outcomes of one fan-out.
type BroadcastResult struct {
	Success int
	Fail    int
}

func NewBroadcaster(bot Sender, repo Repository) *Broadcaster {
	return &Broadcaster{
		bot:       bot,
		repo:      repo,
		batchSize: broadcastBatchSize,
		delay:     broadcastDelay,
		sleep:     time.Sleep,
	}
}

// recipientIDs lists everyone to deliver to: all participants except the
// event's organizer.
func recipientIDs(repo Repository, ev *Event) ([]int, error) {
	ids, err := repo.ListParticipantIDs(ev.ID)
	if err != nil {
		return nil, err
	}
	out := ids[:0:0]
	for _, id := range ids {
		if id != ev.OrganizerID {
			out = append(out, id)
		}
	}
	return out, nil
}

// Send delivers text, or a photo with a caption, to every recipient. One
// failed recipient never aborts the rest; failures are counted and logged.
func (b *Broadcaster) Send(ev *Event, text, photoFileID string) (BroadcastResult, error) {
	var res BroadcastResult
	ids, err := recipientIDs(b.repo, ev)
	if err != nil {
		return res, err
	}
	if len(ids) == 0 {
		return res, nil
	}

	for i, id := range ids {
		if i > 0 && i%b.batchSize == 0 {
			b.sleep(b.delay)
		}
		if err := b.deliver(int64(id), text, photoFileID); err != nil {
			log.Warn().Err(err).Int("user_id", id).Str("event_id", ev.ID).Msg("broadcast delivery failed")
			res.Fail++
			continue
		}
		res.Success++
	}
	return res, nil
}

func (b *Broadcaster) deliver(chatID int64, text, photoFileID string) error {
	if photoFileID != "" {
		cfg := tgbotapi.NewPhotoShare(chatID, photoFileID)
		cfg.Caption = clampCaption(text)
		_, err := b.bot.Send(cfg)
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.bot.Send(msg)
	return err
}

// runBroadcast fans an organizer message out and reports the outcome back
// to the organizer's chat.
func (a *App) runBroadcast(chatID int64, eventID, text, photoFileID string) {
	ev, err := a.repo.GetEvent(eventID)
	if err != nil || ev == nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("load event for broadcast")
		a.send(chatID, a.ui.Text("event_not_found"))
		return
	}

	ids, err := recipientIDs(a.repo, ev)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("list recipients")
		return
	}
	if len(ids) == 0 {
		a.send(chatID, a.ui.Text("broadcast_none"))
		return
	}
	a.send(chatID, a.ui.Text("broadcast_sending", "n", strconv.Itoa(len(ids))))

	res, err := a.broadcaster.Send(ev, a.ui.Text("broadcast_prefix")+text, photoFileID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("broadcast")
		return
	}
	a.send(chatID, a.ui.Text("broadcast_done",
		"success", strconv.Itoa(res.Success),
		"fail", strconv.Itoa(res.Fail)))
}
