package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/PobedazaNami/sprache-motivator-sub000/internal/docstore"
	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

const helpText = `Доступные команды:
/start - регистрация и настройки по умолчанию
/progress - сколько заданий отправлено сегодня и когда следующее
/settings - текущие настройки практики
/quota N - заданий в день (1-10)
/window HH:MM HH:MM - окно отправки, например /window 09:00 21:00
/enable - включить практику
/disable - выключить практику

Просто отправь перевод в ответ на задание, и я его проверю.`

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	message := update.Message

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStart(ctx, message)
		case "help":
			b.reply(message.Chat.ID, helpText)
		case "progress":
			b.handleProgress(ctx, message)
		case "settings":
			b.handleSettings(ctx, message)
		case "quota":
			b.handleQuota(ctx, message)
		case "window":
			b.handleWindow(ctx, message)
		case "enable":
			b.handleToggle(ctx, message, true)
		case "disable":
			b.handleToggle(ctx, message, false)
		case "export":
			// Admin-only command
			if b.isAdmin(message.From.ID) {
				b.handleExport(ctx, message)
			} else {
				b.reply(message.Chat.ID, "Эта команда доступна только администраторам.")
			}
		default:
			b.reply(message.Chat.ID, "Неизвестная команда. /help - список команд.")
		}
		return
	}

	// Any plain text is treated as an answer to the latest open task.
	b.handleAnswer(ctx, message)
}

// handleStart registers the user and seeds default practice settings.
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	user := &models.User{
		ID:        message.From.ID,
		Username:  message.From.UserName,
		FirstName: message.From.FirstName,
		LastName:  message.From.LastName,
	}
	if err := b.deps.Users.Upsert(ctx, user); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to register user")
		b.reply(message.Chat.ID, "Не получилось сохранить профиль, попробуй ещё раз позже.")
		return
	}

	cfg, err := b.deps.Users.GetScheduleConfig(ctx, user.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to load schedule config")
		b.reply(message.Chat.ID, "Не получилось загрузить настройки, попробуй ещё раз позже.")
		return
	}
	if cfg == nil {
		cfg = &models.UserScheduleConfig{
			UserID:         user.ID,
			Enabled:        true,
			StartTime:      "09:00",
			EndTime:        "21:00",
			MessagesPerDay: 3,
			Timezone:       "Europe/Moscow",
			Difficulty:     1,
		}
		if err := b.deps.Users.SaveScheduleConfig(ctx, cfg); err != nil {
			log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to save default schedule config")
			b.reply(message.Chat.ID, "Не получилось сохранить настройки, попробуй ещё раз позже.")
			return
		}
	}
	b.mirrorConfig(ctx, cfg)

	b.reply(message.Chat.ID, fmt.Sprintf(
		"Привет! Я буду присылать задания для практики немецкого: %d в день, с %s до %s.\n\n%s",
		cfg.MessagesPerDay, cfg.StartTime, cfg.EndTime, helpText))
}

// handleProgress shows today's progress and the estimated next slot.
func (b *Bot) handleProgress(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	sent, quota, err := b.deps.Sched.GetDailyProgress(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to get daily progress")
		b.reply(message.Chat.ID, "Сначала настрой практику командой /start.")
		return
	}

	text := fmt.Sprintf("Сегодня отправлено заданий: %d из %d.", sent, quota)
	if _, label, err := b.deps.Sched.EstimateNextTask(ctx, userID); err == nil {
		text += fmt.Sprintf("\nСледующее задание примерно через %s.", label)
	}
	b.reply(message.Chat.ID, text)
}

// handleSettings prints the current practice settings.
func (b *Bot) handleSettings(ctx context.Context, message *tgbotapi.Message) {
	cfg, err := b.deps.Users.GetScheduleConfig(ctx, message.From.ID)
	if err != nil || cfg == nil {
		b.reply(message.Chat.ID, "Настройки не найдены. Используй /start.")
		return
	}
	state := "включена"
	if !cfg.Enabled {
		state = "выключена"
	}
	b.reply(message.Chat.ID, fmt.Sprintf(
		"Практика %s.\nОкно отправки: %s - %s\nЗаданий в день: %d\nУровень: %d",
		state, cfg.StartTime, cfg.EndTime, cfg.MessagesPerDay, cfg.Difficulty))
}

// handleQuota changes messages_per_day. The day counters are deliberately
// left alone: tasks already sent today still count against (or beyond) the
// new quota.
func (b *Bot) handleQuota(ctx context.Context, message *tgbotapi.Message) {
	arg := strings.TrimSpace(message.CommandArguments())
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > 10 {
		b.reply(message.Chat.ID, "Укажи число заданий в день от 1 до 10, например /quota 5.")
		return
	}

	cfg, err := b.deps.Users.GetScheduleConfig(ctx, message.From.ID)
	if err != nil || cfg == nil {
		b.reply(message.Chat.ID, "Настройки не найдены. Используй /start.")
		return
	}
	cfg.MessagesPerDay = n
	if err := b.deps.Users.SaveScheduleConfig(ctx, cfg); err != nil {
		log.Error().Err(err).Int64("user_id", cfg.UserID).Msg("failed to update quota")
		b.reply(message.Chat.ID, "Не получилось сохранить настройки.")
		return
	}
	b.mirrorConfig(ctx, cfg)
	b.reply(message.Chat.ID, fmt.Sprintf("Готово, теперь %d заданий в день.", n))
}

// handleWindow changes the daily send window.
func (b *Bot) handleWindow(ctx context.Context, message *tgbotapi.Message) {
	parts := strings.Fields(message.CommandArguments())
	if len(parts) != 2 || !validClock(parts[0]) || !validClock(parts[1]) {
		b.reply(message.Chat.ID, "Укажи окно в формате /window 09:00 21:00.")
		return
	}
	if parts[1] <= parts[0] {
		b.reply(message.Chat.ID, "Конец окна должен быть позже начала. Окно через полночь не поддерживается.")
		return
	}

	cfg, err := b.deps.Users.GetScheduleConfig(ctx, message.From.ID)
	if err != nil || cfg == nil {
		b.reply(message.Chat.ID, "Настройки не найдены. Используй /start.")
		return
	}
	cfg.StartTime, cfg.EndTime = parts[0], parts[1]
	if err := b.deps.Users.SaveScheduleConfig(ctx, cfg); err != nil {
		log.Error().Err(err).Int64("user_id", cfg.UserID).Msg("failed to update window")
		b.reply(message.Chat.ID, "Не получилось сохранить настройки.")
		return
	}
	b.mirrorConfig(ctx, cfg)
	b.reply(message.Chat.ID, fmt.Sprintf("Готово, задания будут приходить с %s до %s.", cfg.StartTime, cfg.EndTime))
}

// handleToggle enables or disables practice delivery.
func (b *Bot) handleToggle(ctx context.Context, message *tgbotapi.Message, enabled bool) {
	cfg, err := b.deps.Users.GetScheduleConfig(ctx, message.From.ID)
	if err != nil || cfg == nil {
		b.reply(message.Chat.ID, "Настройки не найдены. Используй /start.")
		return
	}
	cfg.Enabled = enabled
	if err := b.deps.Users.SaveScheduleConfig(ctx, cfg); err != nil {
		log.Error().Err(err).Int64("user_id", cfg.UserID).Msg("failed to toggle practice")
		b.reply(message.Chat.ID, "Не получилось сохранить настройки.")
		return
	}
	b.mirrorConfig(ctx, cfg)
	if enabled {
		b.reply(message.Chat.ID, "Практика включена. 🇩🇪")
	} else {
		b.reply(message.Chat.ID, "Практика выключена. Возвращайся, когда будет время!")
	}
}

// handleExport sends the admin the weekly aggregate workbook.
func (b *Bot) handleExport(ctx context.Context, message *tgbotapi.Message) {
	buf, err := b.deps.Reporter.ExportWeeklyWorkbook(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to build weekly export")
		b.reply(message.Chat.ID, "Не получилось собрать выгрузку.")
		return
	}

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("weekly-%s.xlsx", time.Now().Format("2006-01-02")),
		Bytes: buf.Bytes(),
	})
	if _, err := b.api.Send(doc); err != nil {
		log.Error().Err(err).Msg("failed to send weekly export")
	}
}

// handleAnswer runs the answer path: score the reply against the latest open
// task, fold it into the day's aggregate and let the leveler react.
func (b *Bot) handleAnswer(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	answer := strings.TrimSpace(message.Text)
	if answer == "" {
		return
	}

	task, err := b.deps.Tasks.GetLatestOpen(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to look up open task")
		b.reply(message.Chat.ID, "Что-то пошло не так, попробуй ещё раз.")
		return
	}
	if task == nil {
		b.reply(message.Chat.ID, "Сейчас нет открытого задания. /progress подскажет, когда придёт следующее.")
		return
	}

	check, err := b.deps.Checker.CheckAnswer(ctx, task.Prompt, task.Reference, answer)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("answer check failed")
		b.reply(message.Chat.ID, "Не получилось проверить перевод, попробуй отправить его ещё раз.")
		return
	}

	now := time.Now()
	if err := b.deps.Tasks.MarkAnswered(ctx, task.ID, check.Quality, now); err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Msg("failed to mark task answered")
	}

	cfg, err := b.deps.Users.GetScheduleConfig(ctx, userID)
	quota := 0
	if err == nil && cfg != nil {
		quota = cfg.MessagesPerDay
	}
	if err := b.deps.Aggs.RecordAnswer(ctx, userID, now, check.Quality, quota, check.Correct); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to record answer aggregate")
	}

	b.adjustDifficulty(ctx, userID, cfg)

	var sb strings.Builder
	if check.Correct {
		sb.WriteString(fmt.Sprintf("✅ Верно! Качество перевода: %d/100.", check.Quality))
	} else {
		sb.WriteString(fmt.Sprintf("❌ Есть ошибки. Качество перевода: %d/100.", check.Quality))
		sb.WriteString(fmt.Sprintf("\nЭталонный перевод: %s", task.Reference))
	}
	if check.Explanation != "" {
		sb.WriteString(fmt.Sprintf("\n\n%s", check.Explanation))
	}
	b.reply(message.Chat.ID, sb.String())
}

// adjustDifficulty recomputes the user's level from their recent answers.
func (b *Bot) adjustDifficulty(ctx context.Context, userID int64, cfg *models.UserScheduleConfig) {
	if cfg == nil || b.deps.Leveler == nil {
		return
	}
	recent, err := b.deps.Tasks.RecentQualities(ctx, userID, b.deps.Leveler.WindowSize)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to load recent qualities")
		return
	}
	next := b.deps.Leveler.Next(cfg.Difficulty, recent)
	if next == cfg.Difficulty {
		return
	}
	if err := b.deps.Users.UpdateDifficulty(ctx, userID, next); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to update difficulty")
		return
	}
	log.Info().Int64("user_id", userID).Int("from", cfg.Difficulty).Int("to", next).Msg("difficulty adjusted")
}

// mirrorConfig pushes a settings snapshot into the document mirror.
func (b *Bot) mirrorConfig(ctx context.Context, cfg *models.UserScheduleConfig) {
	if b.deps.Mirror == nil {
		return
	}
	doc := &docstore.ProfileDocument{UserID: cfg.UserID, Config: *cfg}
	if err := b.deps.Mirror.Put(ctx, doc); err != nil {
		log.Warn().Err(err).Int64("user_id", cfg.UserID).Msg("failed to mirror settings")
	}
}

// validClock reports whether s is a well-formed HH:MM wall-clock value.
func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
