package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gym-class-booking/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

func (b *Bot) handleAddClass(chatID int64, identity *models.Identity) {
	if !identity.IsAdmin() {
		b.sendMessage(chatID, "❌ This action is for administrators only")
		return
	}

	session := b.getOrCreateSession(chatID)
	session.State = StateEnteringClassName

	msg := tgbotapi.NewMessage(chatID, "🏷 Enter the class name:")
	msg.ReplyMarkup = createCancelKeyboard()
	b.send(msg)
}

func (b *Bot) handleClassFlow(ctx context.Context, chatID int64, identity *models.Identity, session *UserSession, text string) {
	if text == buttonCancel || text == "/cancel" {
		b.cancelOperation(chatID, identity)
		return
	}

	switch session.State {
	case StateEnteringClassName:
		b.handleClassNameInput(chatID, session, text)
	case StateEnteringClassStart:
		b.handleClassStartInput(chatID, session, text)
	case StateSelectingClassDuration:
		b.handleClassDurationInput(chatID, session, text)
	case StateConfirmingClass:
		b.handleClassConfirmation(ctx, chatID, identity, session, text)
	default:
		b.resetSession(chatID)
	}
}

func (b *Bot) handleClassNameInput(chatID int64, session *UserSession, text string) {
	name := strings.TrimSpace(text)
	if name == "" {
		b.sendMessage(chatID, "❌ The name cannot be empty")
		return
	}

	session.ClassName = name
	session.State = StateEnteringClassStart

	msg := tgbotapi.NewMessage(chatID, "📅 Enter the start as "+dateTimeLayout+" (for example: "+
		time.Now().Add(24*time.Hour).Format(dateTimeLayout)+")")
	msg.ReplyMarkup = createCancelKeyboard()
	b.send(msg)
}

func (b *Bot) handleClassStartInput(chatID int64, session *UserSession, text string) {
	start, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(text), time.Local)
	if err != nil {
		b.sendMessage(chatID, "❌ Wrong format. Use "+dateTimeLayout)
		return
	}
	if start.Before(time.Now()) {
		b.sendMessage(chatID, "❌ A class cannot start in the past")
		return
	}

	session.ClassStart = start
	session.State = StateSelectingClassDuration

	msg := tgbotapi.NewMessage(chatID, "⏱ Choose the duration:")
	msg.ReplyMarkup = createDurationKeyboard()
	b.send(msg)
}

func (b *Bot) handleClassDurationInput(chatID int64, session *UserSession, text string) {
	duration, err := time.ParseDuration(strings.TrimSpace(text))
	if err != nil || duration <= 0 {
		b.sendMessage(chatID, "❌ Unknown duration, for example 45m or 1h30m")
		return
	}

	session.SelectedDuration = duration
	session.State = StateConfirmingClass

	end := session.ClassStart.Add(duration)
	msgText := fmt.Sprintf(
		"✅ Confirm the new class:\n\n"+
			"🏷 Name: %s\n"+
			"📅 Date: %s\n"+
			"🕐 Time: %s - %s\n"+
			"⏱ Duration: %s",
		session.ClassName,
		session.ClassStart.Format("02.01.2006"),
		session.ClassStart.Format("15:04"),
		end.Format("15:04"),
		formatDuration(duration),
	)
	msg := tgbotapi.NewMessage(chatID, msgText)
	msg.ReplyMarkup = createConfirmKeyboard()
	b.send(msg)
}

func (b *Bot) handleClassConfirmation(ctx context.Context, chatID int64, identity *models.Identity, session *UserSession, text string) {
	if text != buttonConfirm {
		b.sendMessage(chatID, "❌ Unknown command")
		return
	}

	in := models.ClassInput{
		Name:      session.ClassName,
		StartDate: session.ClassStart,
		Duration:  session.SelectedDuration,
	}
	b.resetSession(chatID)
	b.createClass(ctx, chatID, identity, in)
}

func (b *Bot) cancelOperation(chatID int64, identity *models.Identity) {
	b.resetSession(chatID)
	msg := tgbotapi.NewMessage(chatID, "❌ Cancelled")
	msg.ReplyMarkup = createMainKeyboard(identity)
	b.send(msg)
}
