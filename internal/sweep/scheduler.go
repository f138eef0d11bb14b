package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule fires at the top of every hour.
const DefaultSchedule = "0 * * * *"

// Runner is what the Scheduler triggers. *Sweeper implements it.
type Runner interface {
	Run(ctx context.Context) Report
}

// Scheduler triggers a Runner on a cron cadence and, optionally, once at
// start.
type Scheduler struct {
	cron         *cron.Cron
	entry        cron.EntryID
	runner       Runner
	runOnStartup bool
	ctx          context.Context
	cancelFunc   context.CancelFunc
	wg           sync.WaitGroup
	logger       *slog.Logger
}

// NewScheduler parses schedule (standard five-field cron or a descriptor such
// as "@hourly"). A malformed schedule is an error.
func NewScheduler(runner Runner, schedule string, runOnStartup bool, logger *slog.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "sweep_scheduler"))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.Recover(cronLogger{logger: logger})),
		),
		runner:       runner,
		runOnStartup: runOnStartup,
		ctx:          ctx,
		cancelFunc:   cancel,
		logger:       logger,
	}

	id, err := s.cron.AddFunc(schedule, s.trigger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	s.entry = id
	return s, nil
}

// Start begins the cron loop. It does not block.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("sweep scheduler started",
		slog.Time("next_run", s.Next()),
		slog.Bool("run_on_startup", s.runOnStartup))

	if s.runOnStartup {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.trigger()
		}()
	}
}

// Next returns the next scheduled fire time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Stop cancels in-flight sweeps and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("sweep scheduler stopped")
}

func (s *Scheduler) trigger() {
	report := s.runner.Run(s.ctx)
	if report.Skipped {
		s.logger.Debug("sweep skipped", slog.String("reason", report.SkipReason))
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
