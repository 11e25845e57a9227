package main

import (
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
)

// ErrAlertInPast rejects scheduling a reminder whose fire time has already
// passed. Nothing is persisted in that case.
var ErrAlertInPast = errors.New("alert fire time is in the past")

// AlertScheduler persists reminders and arms an in-process timer for each.
// Persisted state is the source of truth: after a restart RecoverPending
// re-arms what is still in the future and retires what was missed.
type AlertScheduler struct {
	repo    Repository
	deliver func(Alert)
	now     func() time.Time

	mu     sync.Mutex
	timers map[int64]*alertTimer
}

type alertTimer struct {
	eventID string
	timer   *time.Timer
}

func NewAlertScheduler(repo Repository, deliver func(Alert)) *AlertScheduler {
	return &AlertScheduler{
		repo:    repo,
		deliver: deliver,
		now:     time.Now,
		timers:  make(map[int64]*alertTimer),
	}
}

// Schedule validates, persists and arms one reminder, returning its ID.
func (s *AlertScheduler) Schedule(eventID string, fireAt time.Time, minutesBefore, createdBy int) (int64, error) {
	if !fireAt.After(s.now()) {
		return 0, ErrAlertInPast
	}
	id, err := s.repo.AddAlert(eventID, fireAt, minutesBefore, createdBy)
	if err != nil {
		return 0, err
	}
	s.arm(Alert{ID: id, EventID: eventID, FireAt: fireAt, MinutesBefore: minutesBefore, CreatedBy: createdBy})
	log.Info().Int64("alert_id", id).Str("event_id", eventID).Time("fire_at", fireAt).Msg("alert scheduled")
	return id, nil
}

// RecoverPending re-arms persisted reminders after a restart. Reminders
// whose fire time passed while the process was down are marked sent without
// delivery; a stale reminder is worse than none.
func (s *AlertScheduler) RecoverPending() {
	alerts, err := s.repo.ListPendingAlerts()
	if err != nil {
		log.Error().Err(err).Msg("list pending alerts")
		return
	}
	now := s.now()
	for _, al := range alerts {
		if al.FireAt.After(now) {
			s.arm(al)
			continue
		}
		if err := s.repo.MarkAlertSent(al.ID); err != nil {
			log.Error().Err(err).Int64("alert_id", al.ID).Msg("retire missed alert")
		}
	}
	log.Info().Int("count", len(alerts)).Msg("pending alerts recovered")
}

// CancelEvent drops armed timers for an event, after the event itself was
// deleted.
func (s *AlertScheduler) CancelEvent(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, at := range s.timers {
		if at.eventID == eventID {
			at.timer.Stop()
			delete(s.timers, id)
		}
	}
}

func (s *AlertScheduler) arm(al Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := al.FireAt.Sub(s.now())
	s.timers[al.ID] = &alertTimer{
		eventID: al.EventID,
		timer:   time.AfterFunc(d, func() { s.fire(al) }),
	}
}

// fire delivers one reminder and retires it. The alert is marked sent even
// when delivery hits errors; reminders never retry.
func (s *AlertScheduler) fire(al Alert) {
	s.mu.Lock()
	delete(s.timers, al.ID)
	s.mu.Unlock()

	s.deliver(al)
	if err := s.repo.MarkAlertSent(al.ID); err != nil {
		log.Error().Err(err).Int64("alert_id", al.ID).Msg("mark alert sent")
	}
}

// deliverAlert builds the reminder text at fire time, so a later change of
// time or location is reflected, and sends it to every participant.
func (a *App) deliverAlert(al Alert) {
	ev, err := a.repo.GetEvent(al.EventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", al.EventID).Msg("load event for alert")
		return
	}
	if ev == nil {
		// Event deleted since scheduling; nothing to remind about.
		return
	}
	content, err := a.repo.GetContent(al.EventID)
	if err != nil || content == nil {
		log.Error().Err(err).Str("event_id", al.EventID).Msg("load content for alert")
		return
	}

	text := a.ui.Text("reminder_text",
		"title", htmlEscape(ev.Name),
		"time", htmlEscape(displayEventTime(content.EventTime, a.loc)),
		"location", htmlEscape(orNotSet(content.Location)))

	ids, err := recipientIDs(a.repo, ev)
	if err != nil {
		log.Error().Err(err).Str("event_id", al.EventID).Msg("list alert recipients")
		return
	}
	for _, id := range ids {
		msg := tgbotapi.NewMessage(int64(id), text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := a.bot.Send(msg); err != nil {
			log.Warn().Err(err).Int("user_id", id).Msg("reminder delivery failed")
		}
	}
	log.Info().Int64("alert_id", al.ID).Str("event_id", al.EventID).Int("recipients", len(ids)).Msg("reminder delivered")
}
