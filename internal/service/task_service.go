package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmgr-api/internal/domain"
	"github.com/phrazzld/taskmgr-api/internal/store"
)

// TaskUpdate carries the fields of a partial task update. Nil fields are
// left unchanged; ClearDueDate removes the due date.
type TaskUpdate struct {
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Status       *domain.TaskStatus
}

// IsEmpty reports whether the update carries no changes.
func (u TaskUpdate) IsEmpty() bool {
	return u.Description == nil && u.DueDate == nil && !u.ClearDueDate && u.Status == nil
}

// TaskService manages a user's tasks.
type TaskService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Get returns store.ErrTaskNotFound when the task is missing or owned by
	// someone else.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// Create returns store.ErrTaskExists when the user already has a task
	// with the same trimmed description.
	Create(ctx context.Context, userID uuid.UUID, description string, dueDate *time.Time) (*domain.Task, error)

	// Update applies a partial update inside a transaction.
	Update(ctx context.Context, userID, taskID uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// UpdateStatus returns ErrNotOwned when the task belongs to another user.
	UpdateStatus(ctx context.Context, userID, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error)

	// Delete removes the task and reports whether it was past due.
	Delete(ctx context.Context, userID, taskID uuid.UUID) (wasPastDue bool, err error)
}

type taskServiceImpl struct {
	taskStore store.TaskStore
	db        store.TxBeginner
	logger    *slog.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskStore store.TaskStore, db store.TxBeginner, logger *slog.Logger) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		taskStore: taskStore,
		db:        db,
		logger:    logger.With("component", "task_service"),
		now:       time.Now,
	}
}

func (s *taskServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByIDForUser(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (s *taskServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	description string,
	dueDate *time.Time,
) (*domain.Task, error) {
	task, err := domain.NewTask(userID, description, dueDate)
	if err != nil {
		return nil, err
	}

	exists, err := s.taskStore.ExistsWithDescription(ctx, userID, task.Description, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate task: %w", err)
	}
	if exists {
		return nil, store.ErrTaskExists
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		if !errors.Is(err, store.ErrTaskExists) {
			s.logger.Error("failed to create task", "error", err, "user_id", userID)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created", "task_id", task.ID, "user_id", userID)
	return task, nil
}

func (s *taskServiceImpl) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update TaskUpdate,
) (*domain.Task, error) {
	if update.IsEmpty() {
		return nil, ErrNothingToUpdate
	}
	if update.Status != nil && !update.Status.IsClientSettable() {
		if update.Status.IsValid() {
			return nil, ErrStatusNotSettable
		}
		return nil, domain.ErrInvalidTaskStatus
	}

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		task, err := txStore.GetByIDForUser(ctx, taskID, userID)
		if err != nil {
			return err
		}

		if update.Description != nil {
			desc := strings.TrimSpace(*update.Description)
			if desc == "" {
				return domain.ErrEmptyTaskDescription
			}
			if desc != task.Description {
				exists, err := txStore.ExistsWithDescription(ctx, userID, desc, task.ID)
				if err != nil {
					return err
				}
				if exists {
					return store.ErrTaskExists
				}
			}
			task.Description = desc
		}
		if update.ClearDueDate {
			task.DueDate = nil
		} else if update.DueDate != nil {
			due := update.DueDate.UTC()
			task.DueDate = &due
		}
		if update.Status != nil {
			task.Status = *update.Status
		}
		task.UpdatedAt = s.now().UTC()

		if err := txStore.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("task updated", "task_id", taskID, "user_id", userID)
	return updated, nil
}

func (s *taskServiceImpl) UpdateStatus(
	ctx context.Context,
	userID, taskID uuid.UUID,
	status domain.TaskStatus,
) (*domain.Task, error) {
	if !status.IsClientSettable() {
		if status.IsValid() {
			return nil, ErrStatusNotSettable
		}
		return nil, domain.ErrInvalidTaskStatus
	}

	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task.UserID != userID {
		s.logger.Warn("status update on task owned by another user",
			"task_id", taskID,
			"user_id", userID)
		return nil, ErrNotOwned
	}

	if err := s.taskStore.UpdateStatus(ctx, taskID, status); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	if err := task.UpdateStatus(status); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	task, err := s.taskStore.GetByIDForUser(ctx, taskID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get task: %w", err)
	}

	if err := s.taskStore.Delete(ctx, taskID); err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	pastDue := task.IsPastDue(s.now())
	s.logger.Info("task deleted", "task_id", taskID, "user_id", userID, "past_due", pastDue)
	return pastDue, nil
}
