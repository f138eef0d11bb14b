package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmgr-api/internal/domain"
	"github.com/phrazzld/taskmgr-api/internal/redact"
	"github.com/phrazzld/taskmgr-api/internal/store"
)

// Pinger checks store reachability. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dispatcher delivers a notice and reports success. *Retrier implements it.
type Dispatcher interface {
	Send(ctx context.Context, address, description string, dueDate time.Time) bool
}

// TaskRepository is the subset of store.TaskStore used by the sweep.
type TaskRepository interface {
	DueTaskFinder
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error
}

// Sweeper runs due-task sweeps. The zero value is not usable; use NewSweeper.
type Sweeper struct {
	db                Pinger
	tasks             TaskRepository
	scanner           *Scanner
	dispatcher        Dispatcher
	deleteAfterNotify bool
	logger            *slog.Logger
	now               func() time.Time

	running atomic.Bool
}

// Options configures a Sweeper.
type Options struct {
	// DeleteAfterNotify deletes notified tasks instead of marking them
	// notified.
	DeleteAfterNotify bool

	// Lookback is the scan window. Zero selects DefaultLookback.
	Lookback time.Duration
}

// NewSweeper creates a Sweeper. If logger is nil, the default logger is used.
func NewSweeper(db Pinger, tasks TaskRepository, dispatcher Dispatcher, opts Options, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		db:                db,
		tasks:             tasks,
		scanner:           NewScanner(tasks, opts.Lookback),
		dispatcher:        dispatcher,
		deleteAfterNotify: opts.DeleteAfterNotify,
		logger:            logger.With(slog.String("component", "sweep")),
		now:               time.Now,
	}
}

// Running reports whether a sweep is in progress.
func (s *Sweeper) Running() bool {
	return s.running.Load()
}

// Run performs one sweep and returns its report. If a sweep is already in
// progress, Run returns immediately with Report.Skipped set.
func (s *Sweeper) Run(ctx context.Context) Report {
	report := Report{StartedAt: s.now().UTC()}

	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("sweep already running, trigger dropped")
		report.Skipped = true
		report.SkipReason = "already running"
		return report
	}
	defer s.running.Store(false)

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("store unreachable, skipping sweep", slog.String("error", redact.Error(err)))
		report.Skipped = true
		report.SkipReason = "store unreachable"
		return report
	}

	report.From, report.To = s.scanner.Window(report.StartedAt)
	due, err := s.scanner.Scan(ctx, report.StartedAt)
	if err != nil {
		s.logger.Error("failed to scan for due tasks", slog.String("error", redact.Error(err)))
		return report
	}
	if len(due) == 0 {
		s.logger.Info("no due tasks",
			slog.Time("from", report.From),
			slog.Time("to", report.To))
		return report
	}

	s.logger.Info("processing due tasks", slog.Int("count", len(due)))
	for _, dt := range due {
		report.Outcomes = append(report.Outcomes, TaskOutcome{
			TaskID:  dt.Task.ID,
			Outcome: s.handle(ctx, dt),
		})
	}

	s.logger.Info("sweep finished",
		slog.Int("tasks", len(due)),
		slog.Int("notified", report.Notified()),
		slog.Int("notify_failed", report.Count(OutcomeNotifyFailed)),
		slog.Int("skipped_no_email", report.Count(OutcomeSkippedNoEmail)))
	return report
}

// handle processes one task. Panics are contained to the task.
func (s *Sweeper) handle(ctx context.Context, dt store.DueTask) (outcome Outcome) {
	log := s.logger.With(slog.String("task_id", dt.Task.ID.String()))

	defer func() {
		if p := recover(); p != nil {
			log.Error("panic while handling due task", slog.String("panic", fmt.Sprint(p)))
			outcome = OutcomePanicked
		}
	}()

	if !domain.IsValidEmail(dt.OwnerEmail) {
		log.Warn("owner has no usable email address, task left untouched")
		return OutcomeSkippedNoEmail
	}

	var due time.Time
	if dt.Task.DueDate != nil {
		due = *dt.Task.DueDate
	}

	if !s.dispatcher.Send(ctx, dt.OwnerEmail, dt.Task.Description, due) {
		log.Error("notification failed after retries, task left untouched")
		return OutcomeNotifyFailed
	}

	if s.deleteAfterNotify {
		if err := s.tasks.Delete(ctx, dt.Task.ID); err != nil {
			log.Error("failed to delete notified task", slog.String("error", redact.Error(err)))
			return OutcomeDispositionFailed
		}
		log.Info("notified and deleted task")
		return OutcomeDeleted
	}

	if err := s.tasks.UpdateStatus(ctx, dt.Task.ID, domain.TaskStatusNotified); err != nil {
		log.Error("failed to mark task notified", slog.String("error", redact.Error(err)))
		return OutcomeDispositionFailed
	}
	log.Info("notified and marked task")
	return OutcomeMarked
}
