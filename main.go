package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/PobedazaNami/sprache-motivator-sub000/internal/ai"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/bot"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/config"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/counters"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/database"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/docstore"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/leveling"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/report"
	"github.com/PobedazaNami/sprache-motivator-sub000/internal/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	mirror, err := docstore.Open(cfg.MirrorPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open document mirror")
	}
	defer mirror.Close()

	counterStore, err := counters.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to counter store")
	}
	defer counterStore.Close()

	oracle, err := ai.New(cfg.OpenAIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create content oracle")
	}

	users := database.NewUserRepository(db)
	tasks := database.NewTaskRepository(db)
	aggs := database.NewAggregateRepository(db)
	clock := scheduler.SystemClock{}
	loc := cfg.Location()

	// The bot is both the command surface and the delivery sink, so it is
	// built first and handed to the scheduler and reporter.
	b, err := bot.New(cfg.TelegramToken, cfg.AdminUserIDs, bot.Deps{
		Users:   users,
		Tasks:   tasks,
		Aggs:    aggs,
		Mirror:  mirror,
		Checker: oracle,
		Leveler: leveling.NewEngine(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	reporter := report.New(users, aggs, b, clock, loc)

	sched := scheduler.New(scheduler.Config{
		TickInterval:     cfg.TickInterval,
		DailyReportHour:  cfg.DailyReportHour,
		WeeklyReportDay:  cfg.WeeklyReportDay,
		WeeklyReportHour: cfg.WeeklyReportHour,
		Location:         loc,
	}, scheduler.Deps{
		Users:    users,
		Counters: counterStore,
		Oracle:   oracle,
		Tasks:    tasks,
		Sink:     b,
		Mirror:   mirror,
		Reporter: reporter,
		Clock:    clock,
	})
	b.AttachScheduler(sched, reporter)

	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	go func() {
		if err := b.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("bot stopped with error")
		}
	}()

	log.Info().Msg("sprache-motivator started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	cancel()
	// In-flight per-user dispatches may be abandoned; counters were not
	// advanced for them, which is safe.
	time.Sleep(time.Second)
	log.Info().Msg("stopped")
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
