package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/PobedazaNami/sprache-motivator-sub000/internal/docstore"
	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// UserSource provides the schedule settings the dispatch loop scans.
type UserSource interface {
	GetEnabledUsers(ctx context.Context) ([]models.UserScheduleConfig, error)
	GetScheduleConfig(ctx context.Context, userID int64) (*models.UserScheduleConfig, error)
}

// CounterStore is the volatile per-day dispatch counter store.
type CounterStore interface {
	Get(ctx context.Context, userID int64, date time.Time) (models.DayCounters, error)
	MarkSent(ctx context.Context, userID int64, date time.Time, at time.Time) error
}

// ContentOracle generates practice sentences.
type ContentOracle interface {
	GenerateTask(ctx context.Context, difficulty int, topic string) (prompt, reference string, err error)
}

// TaskRecorder persists generated task records.
type TaskRecorder interface {
	Create(ctx context.Context, task *models.Task) (string, error)
}

// NotificationSink delivers a practice task to the user. Fire-and-forget from
// the scheduler's point of view: an error means the user is retried next tick.
type NotificationSink interface {
	SendPracticeTask(ctx context.Context, userID int64, task *models.Task) error
}

// ProfileMirror receives the denormalized profile snapshot after a dispatch.
type ProfileMirror interface {
	Put(ctx context.Context, doc *docstore.ProfileDocument) error
}

// Reporter runs the daily and weekly report jobs.
type Reporter interface {
	SendDailyReports(ctx context.Context) error
	SendWeeklyReports(ctx context.Context) error
}

// Config carries the scheduler's own settings.
type Config struct {
	TickInterval     time.Duration
	DailyReportHour  int
	WeeklyReportDay  time.Weekday
	WeeklyReportHour int
	Location         *time.Location // the single anchor zone for all window arithmetic and cron triggers
	SendsPerSecond   rate.Limit     // outbound throttle between users, 0 = default
}

// Deps are the injected collaborators.
type Deps struct {
	Users    UserSource
	Counters CounterStore
	Oracle   ContentOracle
	Tasks    TaskRecorder
	Sink     NotificationSink
	Mirror   ProfileMirror // optional
	Reporter Reporter      // optional
	Clock    Clock         // optional, defaults to the system clock
}

// Service is the practice dispatch service. Construct exactly one per process:
// there is no distributed lock, so two instances against the same stores will
// double-send.
type Service struct {
	cfg     Config
	deps    Deps
	cron    *gocron.Scheduler
	limiter *rate.Limiter

	baseCtx context.Context
}

// errStore marks a tick-fatal store failure, as opposed to a per-user one.
var errStore = errors.New("store unavailable")

// New creates the scheduler service with its dependencies injected.
func New(cfg Config, deps Deps) *Service {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SendsPerSecond <= 0 {
		cfg.SendsPerSecond = 2
	}
	return &Service{
		cfg:     cfg,
		deps:    deps,
		cron:    gocron.NewScheduler(cfg.Location),
		limiter: rate.NewLimiter(cfg.SendsPerSecond, 1),
	}
}

// Start registers the periodic jobs and runs them in the background until
// Stop. Ticks run in singleton mode so a slow scan is never overlapped by the
// next one.
func (s *Service) Start(ctx context.Context) error {
	s.baseCtx = ctx

	if _, err := s.cron.Every(s.cfg.TickInterval).SingletonMode().Do(func() {
		s.RunTick(s.baseCtx)
	}); err != nil {
		return fmt.Errorf("failed to schedule dispatch tick: %w", err)
	}

	if s.deps.Reporter != nil {
		dailyAt := fmt.Sprintf("%02d:00", s.cfg.DailyReportHour)
		if _, err := s.cron.Every(1).Day().At(dailyAt).Do(func() {
			if err := s.deps.Reporter.SendDailyReports(s.baseCtx); err != nil {
				log.Error().Err(err).Msg("daily report job failed")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule daily report: %w", err)
		}

		weeklyAt := fmt.Sprintf("%02d:00", s.cfg.WeeklyReportHour)
		if _, err := s.cron.Every(1).Week().Weekday(s.cfg.WeeklyReportDay).At(weeklyAt).Do(func() {
			if err := s.deps.Reporter.SendWeeklyReports(s.baseCtx); err != nil {
				log.Error().Err(err).Msg("weekly report job failed")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule weekly report: %w", err)
		}
	}

	s.cron.StartAsync()
	log.Info().
		Dur("tick", s.cfg.TickInterval).
		Str("zone", s.cfg.Location.String()).
		Msg("scheduler started")
	return nil
}

// Stop terminates all scheduled jobs. In-flight per-user dispatches are
// abandoned; their counters were not advanced, which is safe.
func (s *Service) Stop() {
	s.cron.Stop()
}

// RunTick executes one dispatch scan over all enabled users. A store failure
// aborts the whole tick (next tick retries from scratch); anything that goes
// wrong for a single user is logged and does not stop the remaining users.
func (s *Service) RunTick(ctx context.Context) {
	start := s.deps.Clock.Now()

	users, err := s.deps.Users.GetEnabledUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("tick aborted: failed to load enabled users")
		return
	}

	sent := 0
	for _, cfg := range users {
		// Throttle outbound calls, not correctness.
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		dispatched, err := s.dispatchUser(ctx, cfg)
		if errors.Is(err, errStore) {
			log.Error().Err(err).Int64("user_id", cfg.UserID).Msg("tick aborted: counter store unavailable")
			return
		}
		if err != nil {
			log.Warn().Err(err).Int64("user_id", cfg.UserID).Msg("dispatch failed, will retry next tick")
			continue
		}
		if dispatched {
			sent++
		}
	}

	log.Debug().
		Int("users", len(users)).
		Int("sent", sent).
		Dur("took", s.deps.Clock.Now().Sub(start)).
		Msg("dispatch tick finished")
}

// dispatchUser runs the read-decide-write sequence for one user. Counters are
// advanced only after the delivery was confirmed, so a failure anywhere leaves
// the user eligible for the next tick.
func (s *Service) dispatchUser(ctx context.Context, cfg models.UserScheduleConfig) (bool, error) {
	now := s.deps.Clock.Now().In(s.cfg.Location)

	counters, err := s.deps.Counters.Get(ctx, cfg.UserID, now)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errStore, err)
	}

	ok, err := ShouldDispatch(&cfg, counters, now)
	if err != nil {
		// Malformed settings fail closed for this user only.
		log.Warn().Err(err).Int64("user_id", cfg.UserID).Msg("skipping user with malformed schedule settings")
		return false, nil
	}
	if !ok {
		return false, nil
	}

	prompt, reference, err := s.deps.Oracle.GenerateTask(ctx, cfg.Difficulty, cfg.Topic)
	if err != nil {
		return false, fmt.Errorf("failed to generate task: %w", err)
	}

	task := &models.Task{
		UserID:     cfg.UserID,
		Prompt:     prompt,
		Reference:  reference,
		Difficulty: cfg.Difficulty,
		Topic:      cfg.Topic,
		CreatedAt:  now,
	}
	if _, err := s.deps.Tasks.Create(ctx, task); err != nil {
		return false, fmt.Errorf("failed to persist task: %w", err)
	}

	if err := s.deps.Sink.SendPracticeTask(ctx, cfg.UserID, task); err != nil {
		return false, fmt.Errorf("failed to deliver task: %w", err)
	}

	if err := s.deps.Counters.MarkSent(ctx, cfg.UserID, now, now); err != nil {
		return false, fmt.Errorf("%w: %v", errStore, err)
	}

	s.refreshMirror(ctx, cfg, counters.TasksSentToday+1, now)

	log.Info().
		Int64("user_id", cfg.UserID).
		Int("sent_today", counters.TasksSentToday+1).
		Int("quota", cfg.MessagesPerDay).
		Msg("practice task dispatched")
	return true, nil
}

// refreshMirror pushes the post-dispatch snapshot into the document mirror.
// Best effort: the mirror is a read cache, not a system of record.
func (s *Service) refreshMirror(ctx context.Context, cfg models.UserScheduleConfig, sentToday int, at time.Time) {
	if s.deps.Mirror == nil {
		return
	}
	doc := &docstore.ProfileDocument{
		UserID:         cfg.UserID,
		Config:         cfg,
		TasksSentToday: sentToday,
		LastTaskTime:   at,
	}
	if err := s.deps.Mirror.Put(ctx, doc); err != nil {
		log.Warn().Err(err).Int64("user_id", cfg.UserID).Msg("failed to refresh profile mirror")
	}
}
