package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmgr-api/internal/domain"
	"github.com/phrazzld/taskmgr-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TaskStore is a testify mock of store.TaskStore.
type TaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*TaskStore)(nil)

func (m *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *TaskStore) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id, userID)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *TaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	args := m.Called(ctx, userID)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *TaskStore) ExistsWithDescription(
	ctx context.Context,
	userID uuid.UUID,
	description string,
	excludeID uuid.UUID,
) (bool, error) {
	args := m.Called(ctx, userID, description, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *TaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TaskStore) FindDue(
	ctx context.Context,
	from, to time.Time,
	excluded []domain.TaskStatus,
) ([]store.DueTask, error) {
	args := m.Called(ctx, from, to, excluded)
	due, _ := args.Get(0).([]store.DueTask)
	return due, args.Error(1)
}

// WithTx returns the mock itself so expectations set on it also cover
// transactional calls.
func (m *TaskStore) WithTx(*sql.Tx) store.TaskStore {
	return m
}

func taskOrNil(v any) *domain.Task {
	if task, ok := v.(*domain.Task); ok {
		return task
	}
	return nil
}
