package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents where a task is in its lifecycle.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "inProgress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"

	// TaskStatusNotified is set by the due-task sweep once the owner has been
	// emailed. Clients cannot set it.
	TaskStatusNotified TaskStatus = "notified"
)

// SweepTerminalStatuses lists the statuses the due-task sweep never acts on.
var SweepTerminalStatuses = []TaskStatus{TaskStatusCompleted, TaskStatusNotified}

// Common validation errors for Task
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID      = errors.New("task user ID cannot be empty")
	ErrEmptyTaskDescription = errors.New("task description cannot be empty")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
)

// Task is a unit of work owned by a user, optionally with a due date.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a pending task for userID. The description is trimmed;
// casing is preserved.
func NewTask(userID uuid.UUID, description string, dueDate *time.Time) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Description: strings.TrimSpace(description),
		DueDate:     utcPtr(dueDate),
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyTaskDescription
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	return nil
}

// UpdateStatus sets the status and bumps UpdatedAt.
func (t *Task) UpdateStatus(status TaskStatus) error {
	if !status.IsValid() {
		return ErrInvalidTaskStatus
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// IsPastDue reports whether the task had a due date before now.
func (t *Task) IsPastDue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now)
}

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted,
		TaskStatusCancelled, TaskStatusNotified:
		return true
	default:
		return false
	}
}

// IsClientSettable reports whether API clients may move a task into s.
func (s TaskStatus) IsClientSettable() bool {
	return s.IsValid() && s != TaskStatusNotified
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
