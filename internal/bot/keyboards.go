package bot

import (
	"fmt"

	"gym-class-booking/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

const (
	buttonClasses  = "📅 Classes"
	buttonHistory  = "📖 My bookings"
	buttonAddClass = "➕ Add class"
	buttonCancel   = "❌ Cancel"
	buttonConfirm  = "✅ Create class"
)

var durationButtons = []string{"30m", "45m", "1h", "1h30m"}

func createMainKeyboard(identity *models.Identity) tgbotapi.ReplyKeyboardMarkup {
	if identity.IsAdmin() {
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(buttonClasses),
				tgbotapi.NewKeyboardButton(buttonHistory),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(buttonAddClass),
			),
		)
	}

	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonClasses),
			tgbotapi.NewKeyboardButton(buttonHistory),
		),
	)
}

// createToggleKeyboard offers one button per class, labelled with the
// command that flips attendance for it.
func createToggleKeyboard(views []models.ClassView) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, v := range views {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(fmt.Sprintf("/toggle %d", v.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(buttonClasses),
		tgbotapi.NewKeyboardButton(buttonHistory),
	))
	return tgbotapi.NewReplyKeyboard(rows...)
}

func createDurationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(durationButtons))
	for _, d := range durationButtons {
		row = append(row, tgbotapi.NewKeyboardButton(d))
	}
	return tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCancel)),
	)
}

func createConfirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonConfirm),
			tgbotapi.NewKeyboardButton(buttonCancel),
		),
	)
}

func createCancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCancel)),
	)
}
