package main

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// Inline keyboard builders. Callback data stays within the closed token set
// that parseAction understands.

func (a *App) kbHub(userID int) tgbotapi.InlineKeyboardMarkup {
	organized, _ := a.repo.ListOrganizerEvents(userID)
	joined, _ := a.repo.ListJoinedEvents(userID)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("hub_admin", "n", strconv.Itoa(len(organized))), "hub:admin"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("hub_joined", "n", strconv.Itoa(len(joined))), "hub:joined"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("hub_create"), "event:create"),
		),
	)
}

func (a *App) kbHubListAdmin(userID int) tgbotapi.InlineKeyboardMarkup {
	events, _ := a.repo.ListOrganizerEvents(userID)
	var rows [][]tgbotapi.InlineKeyboardButton
	if len(events) == 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("hub_create"), "event:create"),
		))
	}
	for _, ev := range events {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				a.ui.Btn("event_item_admin", "name", ev.Name),
				fmt.Sprintf("event:open:%s:hub_admin", ev.ID),
			),
		))
	}
	rows = append(rows, a.backRow("hub:none"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (a *App) kbHubListJoined(userID int) tgbotapi.InlineKeyboardMarkup {
	events, _ := a.repo.ListJoinedEvents(userID)
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ev := range events {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				a.ui.Btn("event_item_joined", "name", ev.Name),
				fmt.Sprintf("event:open:%s:hub_joined", ev.ID),
			),
		))
	}
	rows = append(rows, a.backRow("hub:none"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (a *App) kbConfirm(yesData, noData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("yes"), yesData),
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("no"), noData),
		),
	)
}

// kbEventMenu is the per-event action menu, organizer and participant
// variants.
func (a *App) kbEventMenu(ev *Event, userID int, src string) tgbotapi.InlineKeyboardMarkup {
	isOrganizer, _ := a.repo.IsOrganizer(ev.ID, userID)
	share := shareURL(inviteLink(a.botName, ev.ID))

	var rows [][]tgbotapi.InlineKeyboardButton
	if isOrganizer {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("manage"), "admin:manage"),
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("view"), "admin:view"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("push"), "admin:notify"),
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("alert"), "admin:alert"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL(a.ui.Btn("share"), share),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("invite_link"), "admin:invite"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("delete_event"), "admin:delete"),
			),
		)
	} else {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("p_info"), "p:info"),
				tgbotapi.NewInlineKeyboardButtonURL(a.ui.Btn("p_share"), share),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("p_ask"), "p:ask"),
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("p_feedback"), "p:feedback"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("p_leave"), "p:leave"),
			),
		)
	}

	back := "hub:none"
	switch src {
	case "hub_admin":
		back = "hub:admin"
	case "hub_joined":
		back = "hub:joined"
	}
	rows = append(rows, a.backRow(back))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (a *App) kbManage() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("agenda"), "admin:agenda"),
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("time"), "admin:time"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("location"), "admin:location"),
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("map_pin"), "admin:map_pin"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("wifi"), "admin:wifi"),
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("org"), "admin:org"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("photos"), "admin:photos"),
		),
		a.backRow("admin:back_to_menu"),
	)
}

func (a *App) kbViewMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("members"), "admin:members"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("anon_questions"), "admin:questions"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("feedback_summary"), "admin:feedback"),
		),
		a.backRow("admin:back_to_menu"),
	)
}

func (a *App) kbFieldMenu(field, back string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("view_current"), "admin:"+field+"_view"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("update_set"), "admin:"+field+"_edit"),
		),
		a.backRow(back),
	)
}

func (a *App) kbAlertMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("alert_before", "m", "15"), "admin:alert_set:15"),
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("alert_before", "m", "30"), "admin:alert_set:30"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("alert_before", "m", "60"), "admin:alert_set:60"),
		),
		a.backRow("admin:back_to_menu"),
	)
}

func (a *App) kbPhotosMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("photos_view"), "admin:photos_view"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("photos_upload"), "admin:photos_upload"),
		),
		a.backRow("admin:manage"),
	)
}

func (a *App) kbRating() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("positive"), "p:rate:1"),
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("negative"), "p:rate:-1"),
		),
		a.backRow("p:back_to_menu"),
	)
}

func (a *App) kbFeedbackComment() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("skip"), "p:feedback_skip"),
		),
		a.backRow("p:back_to_menu"),
	)
}

func (a *App) kbCancel(backData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("cancel"), backData),
		),
	)
}

func (a *App) kbBack(backData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(a.backRow(backData))
}

func (a *App) backRow(backData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(a.ui.Btn("back"), backData),
	)
}

// kbShareContact is the reply keyboard with the contact-sharing button used
// during the phone registration step.
func (a *App) kbShareContact() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(a.ui.Btn("share_contact")),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
