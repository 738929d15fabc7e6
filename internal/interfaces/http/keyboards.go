package http

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Inline keyboards for the Telegram surface.

// CreatePaywallKeyboard is shown when the free quota is exhausted.
func CreatePaywallKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Pay by card", "action_pay"),
			tgbotapi.NewInlineKeyboardButtonData("🚪 Log out", "action_logout"),
		),
	)
}

// CreateResultKeyboard follows a resolved location.
func CreateResultKeyboard(mapURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🗺 Open map", mapURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Ask another", "action_ask"),
		),
	)
}
