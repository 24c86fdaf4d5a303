package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"gym-class-booking/internal/models"
	"gym-class-booking/internal/repository/memory"
	booking_service "gym-class-booking/internal/service/booking"
	catalog_service "gym-class-booking/internal/service/catalog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap/zaptest"
)

const (
	adminID  = 100
	memberID = 200
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		t.Fatal("no message sent")
	}
	return f.texts[len(f.texts)-1]
}

func newTestBot(t *testing.T) (*Bot, *fakeSender, *memory.Store) {
	t.Helper()
	store := memory.New()
	logger := zaptest.NewLogger(t)
	sender := &fakeSender{}
	b := newBot(
		sender,
		booking_service.NewBookingService(store.Bookings(), logger),
		catalog_service.NewCatalogService(store.Classes(), store.Bookings(), logger),
		[]int64{adminID},
		logger,
	)
	return b, sender, store
}

func command(from int, text string) *tgbotapi.Message {
	length := strings.IndexByte(text, ' ')
	if length < 0 {
		length = len(text)
	}
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: int64(from)},
		Text:     text,
		Entities: &[]tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func text(from int, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: int64(from)},
		Text: text,
	}
}

func TestIdentityFor(t *testing.T) {
	b, _, _ := newTestBot(t)

	admin := b.identityFor(&tgbotapi.User{ID: adminID})
	if admin.UserID != "tg:100" || !admin.IsAdmin() {
		t.Fatalf("admin identity = %+v", admin)
	}
	member := b.identityFor(&tgbotapi.User{ID: memberID})
	if member.UserID != "tg:200" || member.IsAdmin() || !member.HasRole(models.RoleMember) {
		t.Fatalf("member identity = %+v", member)
	}
	if b.identityFor(nil) != nil {
		t.Fatal("nil user must map to nil identity")
	}
}

func TestBookingThroughCommands(t *testing.T) {
	b, sender, store := newTestBot(t)
	ctx := context.Background()
	start := time.Now().Add(48 * time.Hour).Format(dateTimeLayout)

	b.handleMessage(ctx, command(adminID, "/addclass Yoga;"+start+";45m"))
	if got := sender.last(t); !strings.Contains(got, "Class #1 Yoga created") {
		t.Fatalf("add class reply = %q", got)
	}

	b.handleMessage(ctx, command(memberID, "/toggle 1"))
	if got := sender.last(t); !strings.Contains(got, "booked for class #1") {
		t.Fatalf("toggle reply = %q", got)
	}
	if n := store.BookingRows("tg:200", 1); n != 1 {
		t.Fatalf("booking rows = %d, want 1", n)
	}

	b.handleMessage(ctx, command(memberID, "/classes"))
	if got := sender.last(t); !strings.Contains(got, "✅ #1 Yoga") {
		t.Fatalf("classes reply = %q", got)
	}

	b.handleMessage(ctx, text(memberID, buttonHistory))
	if got := sender.last(t); !strings.Contains(got, "Your bookings") || !strings.Contains(got, "Yoga") {
		t.Fatalf("history reply = %q", got)
	}

	b.handleMessage(ctx, command(adminID, "/classes"))
	if got := sender.last(t); !strings.Contains(got, "▫️ #1 Yoga") {
		t.Fatalf("admin sees another member's booking: %q", got)
	}

	b.handleMessage(ctx, command(memberID, "/toggle 1"))
	if got := sender.last(t); !strings.Contains(got, "cancelled") {
		t.Fatalf("second toggle reply = %q", got)
	}
	if n := store.BookingCount(); n != 0 {
		t.Fatalf("bookings = %d, want 0", n)
	}
}

func TestCommandErrors(t *testing.T) {
	b, sender, _ := newTestBot(t)
	ctx := context.Background()
	start := time.Now().Add(time.Hour).Format(dateTimeLayout)

	tests := []struct {
		name string
		msg  *tgbotapi.Message
		want string
	}{
		{"toggle without id", command(memberID, "/toggle"), "give the class id"},
		{"toggle missing class", command(memberID, "/toggle 42"), "Class not found"},
		{"member adds class", command(memberID, "/addclass Spin;" + start + ";30m"), "administrators only"},
		{"member deletes class", command(memberID, "/delclass 1"), "administrators only"},
		{"bad add format", command(adminID, "/addclass Spin"), "use /addclass"},
		{"bad duration", command(adminID, "/addclass Spin;" + start + ";soon"), "duration must look like"},
		{"delete missing class", command(adminID, "/delclass 7"), "Class not found"},
		{"unknown command", command(memberID, "/dance"), "Unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.handleMessage(ctx, tt.msg)
			if got := sender.last(t); !strings.Contains(got, tt.want) {
				t.Fatalf("reply = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestAddClassFlow(t *testing.T) {
	b, sender, _ := newTestBot(t)
	ctx := context.Background()
	start := time.Now().Add(72 * time.Hour).Truncate(time.Minute)

	b.handleMessage(ctx, command(adminID, "/addclass"))
	if got := sender.last(t); !strings.Contains(got, "class name") {
		t.Fatalf("flow start reply = %q", got)
	}

	b.handleMessage(ctx, text(adminID, "Pilates"))
	b.handleMessage(ctx, text(adminID, "tomorrow"))
	if got := sender.last(t); !strings.Contains(got, "Wrong format") {
		t.Fatalf("bad start reply = %q", got)
	}
	b.handleMessage(ctx, text(adminID, start.Format(dateTimeLayout)))
	b.handleMessage(ctx, text(adminID, "1h"))
	if got := sender.last(t); !strings.Contains(got, "Confirm the new class") || !strings.Contains(got, "Pilates") {
		t.Fatalf("confirmation reply = %q", got)
	}
	b.handleMessage(ctx, text(adminID, buttonConfirm))
	if got := sender.last(t); !strings.Contains(got, "Pilates created") {
		t.Fatalf("create reply = %q", got)
	}

	views, err := b.CatalogService.ProjectClasses(ctx, nil, models.ModeAnonymous)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(views) != 1 || views[0].Duration != time.Hour || !views[0].StartDate.Equal(start) {
		t.Fatalf("views = %+v", views)
	}

	if s := b.getOrCreateSession(adminID); s.State != StateDefault {
		t.Fatalf("session state = %v, want default", s.State)
	}
}

func TestAddClassFlowCancel(t *testing.T) {
	b, sender, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command(adminID, "/addclass"))
	b.handleMessage(ctx, text(adminID, "Boxing"))
	b.handleMessage(ctx, text(adminID, buttonCancel))
	if got := sender.last(t); !strings.Contains(got, "Cancelled") {
		t.Fatalf("cancel reply = %q", got)
	}

	b.handleMessage(ctx, command(adminID, "/classes"))
	if got := sender.last(t); !strings.Contains(got, "No upcoming classes") {
		t.Fatalf("classes after cancel = %q", got)
	}
}

func TestSameChatMessagesHandledInOrder(t *testing.T) {
	b, sender, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command(adminID, "/addclass"))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.handleMessage(ctx, text(adminID, "Pilates"))
		}()
	}
	wg.Wait()

	if s := b.getOrCreateSession(adminID); s.State != StateEnteringClassStart || s.ClassName != "Pilates" {
		t.Fatalf("session = %+v, want name taken once and start pending", s)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	var prompts, rejected int
	for _, msg := range sender.texts {
		switch {
		case strings.Contains(msg, "Enter the start"):
			prompts++
		case strings.Contains(msg, "Wrong format"):
			rejected++
		}
	}
	if prompts != 1 || rejected != n-1 {
		t.Fatalf("start prompts = %d, rejections = %d; want 1 and %d", prompts, rejected, n-1)
	}
}
