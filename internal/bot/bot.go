package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"schedule_bot/internal/config"
	"schedule_bot/internal/model"
	"schedule_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// CalendarService is the part of the calendar synchronization the bot
// talks to.
type CalendarService interface {
	UserAdded(ctx context.Context, user model.User) error
	UserEdited(ctx context.Context, user model.User) error
	Links(ctx context.Context, userID uuid.UUID) (model.FileLinks, error)
	Document(ctx context.Context, userID uuid.UUID) ([]byte, error)
	Snapshot() []model.Schedule
}

// Bot is the Telegram bot that handles user commands and sends notifications.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	cfg      *config.Config
	calendar CalendarService
	log      *slog.Logger
	// sendPause spaces out notification messages.
	sendPause time.Duration
}

// New creates a Bot with the given Telegram token, storage, config and
// calendar service.
func New(token string, store storage.Storage, cfg *config.Config, calendar CalendarService, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:       api,
		store:     store,
		cfg:       cfg,
		calendar:  calendar,
		log:       log,
		sendPause: 50 * time.Millisecond,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				if !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
					continue
				}
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// DeliverNotifications sends every schedule notification to its recipients
// until the stream is closed or ctx is cancelled.
func (b *Bot) DeliverNotifications(ctx context.Context, notes <-chan model.ScheduleNotification) {
	for {
		select {
		case <-ctx.Done():
			return
		case note, ok := <-notes:
			if !ok {
				return
			}
			b.deliver(ctx, note)
		}
	}
}

func (b *Bot) deliver(ctx context.Context, note model.ScheduleNotification) {
	text := FormatNotification(note.Schedule)
	sent := 0
	for _, id := range note.RecipientUserIDs {
		if ctx.Err() != nil {
			return
		}
		user, err := b.store.GetUser(ctx, id)
		if err != nil {
			b.log.Error("get notification recipient", "user_id", id, "error", err)
			continue
		}
		b.SendMessage(user.TelegramID, text)
		sent++

		// Rate limit: ~20 messages/sec max for Telegram
		time.Sleep(b.sendPause)
	}
	if sent > 0 {
		b.log.Info("sent notifications",
			"schedule_type", note.Schedule.Type,
			"week_start", note.Schedule.WeekStart.Format(model.DateLayout),
			"count", sent,
		)
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case cmdCourses:
		b.handleCourses(chatID)
	case cmdPrograms:
		b.handlePrograms(chatID, args)
	case "groups":
		b.handleGroups(chatID, args)
	case "subgroups":
		b.handleSubgroups(chatID, args)
	case "setgroup":
		b.handleSetGroup(ctx, chatID, args)
	case "me":
		b.handleMe(ctx, chatID)
	case cmdLink:
		b.handleLink(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
