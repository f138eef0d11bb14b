package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmgr-api/internal/domain"
)

// DueTask is a task joined with its owner's email address. OwnerEmail is
// empty when the owner has no address on record.
type DueTask struct {
	Task       domain.Task
	OwnerEmail string
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task.
	// Returns ErrInvalidEntity if the owning user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID regardless of owner.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetByIDForUser retrieves a task only if it belongs to userID.
	// Returns ErrTaskNotFound otherwise.
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)

	// ListByUser returns all tasks owned by userID, oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ExistsWithDescription reports whether userID already has a task with
	// exactly this description, ignoring excludeID (uuid.Nil excludes nothing).
	ExistsWithDescription(ctx context.Context, userID uuid.UUID, description string, excludeID uuid.UUID) (bool, error)

	// Update persists description, due date, and status of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateStatus sets the status of a task.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// Delete removes a task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindDue returns tasks whose due date lies in (from, to] and whose
	// status is not in excluded, joined with the owner's email, ordered by
	// due date.
	FindDue(ctx context.Context, from, to time.Time, excluded []domain.TaskStatus) ([]DueTask, error)

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}
