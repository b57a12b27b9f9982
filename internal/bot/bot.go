package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/PobedazaNami/sprache-motivator-sub000/internal/ai"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/database"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/docstore"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/leveling"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/report"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/scheduler"
	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// AnswerChecker is the slice of the content oracle the answer path needs.
type AnswerChecker interface {
	CheckAnswer(ctx context.Context, prompt, reference, answer string) (*ai.AnswerCheck, error)
}

// Deps are the collaborators the bot needs besides the Telegram API itself.
type Deps struct {
	Users    *database.UserRepository
	Tasks    *database.TaskRepository
	Aggs     *database.AggregateRepository
	Mirror   *docstore.Mirror
	Sched    *scheduler.Service
	Reporter *report.Reporter
	Checker  AnswerChecker
	Leveler  *leveling.Engine
}

// Bot represents the Telegram surface: the notification sink the scheduler
// and reporter deliver through, plus the command handlers and answer intake.
type Bot struct {
	api    *tgbotapi.BotAPI
	deps   Deps
	admins map[int64]bool
}

// New creates a new bot instance
func New(token string, adminIDs []int64, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}

	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &Bot{api: api, deps: deps, admins: admins}, nil
}

// AttachScheduler wires the scheduler service and the reporter in after
// construction. The bot is their delivery sink, so it has to exist first.
func (b *Bot) AttachScheduler(s *scheduler.Service, r *report.Reporter) {
	b.deps.Sched = s
	b.deps.Reporter = r
}

// Start consumes Telegram updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	log.Info().Str("account", b.api.Self.UserName).Msg("authorized on telegram")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}

// SendPracticeTask implements scheduler.NotificationSink.
func (b *Bot) SendPracticeTask(ctx context.Context, userID int64, task *models.Task) error {
	text := fmt.Sprintf("📝 Переведи на немецкий:\n\n%s", task.Prompt)
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send practice task to user %d: %w", userID, err)
	}
	return nil
}

// SendText implements report.MessageSink.
func (b *Bot) SendText(ctx context.Context, userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to user %d: %w", userID, err)
	}
	return nil
}

// reply sends text back to the chat the update came from, logging failures.
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}
