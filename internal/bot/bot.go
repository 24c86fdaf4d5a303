package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"gym-class-booking/internal/models"
	"gym-class-booking/internal/models/config"
	"gym-class-booking/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI the handlers need.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api            *tgbotapi.BotAPI
	sender         Sender
	BookingService service.BookingService
	CatalogService service.CatalogService
	admins         map[int64]bool
	logger         *zap.Logger

	userSessions map[int64]*UserSession // chatID -> session
	chatLocks    map[int64]*sync.Mutex  // serialises updates of one chat
	mu           sync.Mutex
}

func NewBot(
	cfg config.BotConfig,
	bookingService service.BookingService,
	catalogService service.CatalogService,
	logger *zap.Logger,
) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.Debug

	b := newBot(api, bookingService, catalogService, cfg.AdminIDs, logger)
	b.api = api
	b.logger.Info("bot initialized",
		zap.String("username", api.Self.UserName),
		zap.Bool("debug", cfg.Debug),
		zap.Int64s("admins", cfg.AdminIDs),
	)
	return b, nil
}

func newBot(
	sender Sender,
	bookingService service.BookingService,
	catalogService service.CatalogService,
	adminIDs []int64,
	logger *zap.Logger,
) *Bot {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Bot{
		sender:         sender,
		BookingService: bookingService,
		CatalogService: catalogService,
		admins:         admins,
		logger:         logger.Named("bot"),
		userSessions:   make(map[int64]*UserSession),
		chatLocks:      make(map[int64]*sync.Mutex),
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

// identityFor maps a Telegram account to the opaque member id used for
// bookings. Accounts listed in ADMIN_IDS also get the admin role.
func (b *Bot) identityFor(from *tgbotapi.User) *models.Identity {
	if from == nil {
		return nil
	}
	identity := &models.Identity{
		UserID: "tg:" + strconv.Itoa(from.ID),
		Roles:  []models.Role{models.RoleMember},
	}
	if b.admins[int64(from.ID)] {
		identity.Roles = append(identity.Roles, models.RoleAdmin)
	}
	return identity
}

// lockChat blocks until no other update of chatID is being handled.
// Sessions are only read and written while their chat is locked.
func (b *Bot) lockChat(chatID int64) func() {
	b.mu.Lock()
	lock, ok := b.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		b.chatLocks[chatID] = lock
	}
	b.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (b *Bot) getOrCreateSession(chatID int64) *UserSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	if session, exists := b.userSessions[chatID]; exists {
		return session
	}
	session := &UserSession{State: StateDefault}
	b.userSessions[chatID] = session
	return session
}

func (b *Bot) resetSession(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.userSessions, chatID)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Warn("send message failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}
