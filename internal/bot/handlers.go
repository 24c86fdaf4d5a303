package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gym-class-booking/internal/apperr"
	"gym-class-booking/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

const (
	dateTimeLayout = "2006-01-02 15:04"
	displayLayout  = "Mon 02.01.2006 15:04"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}
	b.logger.Debug("message",
		zap.String("from", message.From.UserName),
		zap.String("text", message.Text),
	)

	identity := b.identityFor(message.From)
	chatID := message.Chat.ID

	unlock := b.lockChat(chatID)
	defer unlock()

	// An unfinished flow takes the message before any command does.
	session := b.getOrCreateSession(chatID)
	if session.State != StateDefault {
		b.handleClassFlow(ctx, chatID, identity, session, message.Text)
		return
	}

	if message.IsCommand() {
		args := strings.TrimSpace(message.CommandArguments())
		switch message.Command() {
		case "start":
			b.sendWelcomeMessage(chatID, identity)
		case "classes":
			b.showClasses(ctx, chatID, identity, false)
		case "history":
			b.showClasses(ctx, chatID, identity, true)
		case "class":
			b.showClassDetails(ctx, chatID, identity, args)
		case "toggle":
			b.handleToggle(ctx, chatID, identity, args)
		case "addclass":
			if args == "" {
				b.handleAddClass(chatID, identity)
				return
			}
			b.handleQuickAddClass(ctx, chatID, identity, args)
		case "delclass":
			b.handleDeleteClass(ctx, chatID, identity, args)
		default:
			b.sendMessage(chatID, "🤷 Unknown command. Try /start")
		}
		return
	}

	switch message.Text {
	case buttonClasses:
		b.showClasses(ctx, chatID, identity, false)
	case buttonHistory:
		b.showClasses(ctx, chatID, identity, true)
	case buttonAddClass:
		b.handleAddClass(chatID, identity)
	default:
		b.sendWelcomeMessage(chatID, identity)
	}
}

func (b *Bot) sendWelcomeMessage(chatID int64, identity *models.Identity) {
	text := "🏋️ Welcome to the gym!\n\n" +
		"/classes - upcoming classes\n" +
		"/history - classes you booked\n" +
		"/toggle <id> - book or cancel a class\n" +
		"/class <id> - class details"
	if identity.IsAdmin() {
		text += "\n\nAdmin:\n" +
			"/addclass - add a class step by step\n" +
			"/addclass name;" + dateTimeLayout + ";45m - add a class at once\n" +
			"/delclass <id> - delete a class"
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createMainKeyboard(identity)
	b.send(msg)
}

func (b *Bot) showClasses(ctx context.Context, chatID int64, identity *models.Identity, history bool) {
	mode := models.ResolveMode(identity, history)
	views, err := b.CatalogService.ProjectClasses(ctx, identity, mode)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	if len(views) == 0 {
		text := "📭 No upcoming classes."
		if mode == models.ModeHistory {
			text = "📭 You have no bookings."
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = createMainKeyboard(identity)
		b.send(msg)
		return
	}

	title := "📅 Upcoming classes:\n\n"
	if mode == models.ModeHistory {
		title = "📖 Your bookings:\n\n"
	}
	msg := tgbotapi.NewMessage(chatID, title+formatClassList(views))
	if mode == models.ModeUpcoming {
		msg.ReplyMarkup = createToggleKeyboard(views)
	} else {
		msg.ReplyMarkup = createMainKeyboard(identity)
	}
	b.send(msg)
}

func formatClassList(views []models.ClassView) string {
	var sb strings.Builder
	for _, v := range views {
		mark := "▫️"
		if v.Attending {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%s #%d %s\n   🕐 %s, %s\n",
			mark, v.ID, v.Name, v.StartDate.Format(displayLayout), formatDuration(v.Duration))
	}
	return sb.String()
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours == 0 {
		return fmt.Sprintf("%d min", minutes)
	}
	if minutes == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, minutes)
}

func (b *Bot) showClassDetails(ctx context.Context, chatID int64, identity *models.Identity, args string) {
	id, err := parseClassID(args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	details, err := b.CatalogService.ClassDetails(ctx, identity, id)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	text := fmt.Sprintf("🏷 #%d %s\n🕐 %s - %s\n⏱ %s",
		details.ID,
		details.Name,
		details.StartDate.Format(displayLayout),
		details.EndDate().Format("15:04"),
		formatDuration(details.Duration),
	)
	if details.Description != "" {
		text += "\n📝 " + details.Description
	}
	if details.Attending {
		text += "\n\n✅ You are attending"
	} else {
		text += fmt.Sprintf("\n\nBook with /toggle %d", details.ID)
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) handleToggle(ctx context.Context, chatID int64, identity *models.Identity, args string) {
	id, err := parseClassID(args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	result, err := b.BookingService.ToggleBooking(ctx, identity, id)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	text := fmt.Sprintf("✅ You are booked for class #%d", id)
	if result == models.ToggleRemoved {
		text = fmt.Sprintf("🗑 Booking for class #%d cancelled", id)
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) handleQuickAddClass(ctx context.Context, chatID int64, identity *models.Identity, args string) {
	in, err := parseClassArgs(args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.createClass(ctx, chatID, identity, in)
}

func (b *Bot) handleDeleteClass(ctx context.Context, chatID int64, identity *models.Identity, args string) {
	id, err := parseClassID(args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	if err := b.CatalogService.DeleteClass(ctx, identity, id); err != nil {
		b.replyError(chatID, err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("🗑 Class #%d deleted", id))
}

func (b *Bot) createClass(ctx context.Context, chatID int64, identity *models.Identity, in models.ClassInput) {
	class, err := b.CatalogService.CreateClass(ctx, identity, in)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Class #%d %s created for %s",
		class.ID, class.Name, class.StartDate.Format(displayLayout)))
	msg.ReplyMarkup = createMainKeyboard(identity)
	b.send(msg)
}

func parseClassID(args string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("give the class id, for example /toggle 12")
	}
	return id, nil
}

// parseClassArgs reads "name;2006-01-02 15:04;45m".
func parseClassArgs(args string) (models.ClassInput, error) {
	parts := strings.Split(args, ";")
	if len(parts) != 3 {
		return models.ClassInput{}, apperr.Validation("use /addclass name;" + dateTimeLayout + ";45m")
	}

	start, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(parts[1]), time.Local)
	if err != nil {
		return models.ClassInput{}, apperr.Validation("start must look like " + dateTimeLayout)
	}
	duration, err := time.ParseDuration(strings.TrimSpace(parts[2]))
	if err != nil {
		return models.ClassInput{}, apperr.Validation("duration must look like 45m or 1h30m")
	}

	return models.ClassInput{
		Name:      strings.TrimSpace(parts[0]),
		StartDate: start,
		Duration:  duration,
	}, nil
}

func (b *Bot) replyError(chatID int64, err error) {
	var text string
	switch apperr.CodeOf(err) {
	case apperr.CodeUnauthorized:
		text = "❌ This action is for administrators only"
	case apperr.CodeNotFound:
		text = "❌ Class not found"
	case apperr.CodeConflict:
		text = "❌ The class was changed meanwhile, try again"
	case apperr.CodeValidation:
		text = "❌ Invalid input"
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			text = "❌ " + appErr.Message
		}
	default:
		b.logger.Error("bot request failed", zap.Int64("chat_id", chatID), zap.Error(err))
		text = "❌ Something went wrong, try again later"
	}
	b.sendMessage(chatID, text)
}
