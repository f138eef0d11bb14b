package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/taskmgr-api/internal/domain"
	"github.com/phrazzld/taskmgr-api/internal/mocks"
	"github.com/phrazzld/taskmgr-api/internal/service"
	"github.com/phrazzld/taskmgr-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskService(t *testing.T) (service.TaskService, *mocks.TaskStore, sqlmock.Sqlmock) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tasks := new(mocks.TaskStore)
	return service.NewTaskService(tasks, db, nil), tasks, sqlMock
}

func ptr[T any](v T) *T { return &v }

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("trims description and stores pending task", func(t *testing.T) {
		svc, tasks, _ := newTaskService(t)
		tasks.On("ExistsWithDescription", ctx, userID, "Buy milk", uuid.Nil).Return(false, nil)
		tasks.On("Create", ctx, mock.AnythingOfType("*domain.Task")).Return(nil)

		task, err := svc.Create(ctx, userID, "  Buy milk ", nil)

		require.NoError(t, err)
		assert.Equal(t, "Buy milk", task.Description)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Nil(t, task.DueDate)
		tasks.AssertExpectations(t)
	})

	t.Run("duplicate description", func(t *testing.T) {
		svc, tasks, _ := newTaskService(t)
		tasks.On("ExistsWithDescription", ctx, userID, "Buy milk", uuid.Nil).Return(true, nil)

		_, err := svc.Create(ctx, userID, "Buy milk", nil)

		assert.ErrorIs(t, err, store.ErrTaskExists)
		tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("blank description", func(t *testing.T) {
		svc, _, _ := newTaskService(t)
		_, err := svc.Create(ctx, userID, "   ", nil)
		assert.ErrorIs(t, err, domain.ErrEmptyTaskDescription)
	})
}

func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	existing := func() *domain.Task {
		return &domain.Task{
			ID:          uuid.New(),
			UserID:      userID,
			Description: "Buy milk",
			Status:      domain.TaskStatusPending,
		}
	}

	t.Run("nothing to update", func(t *testing.T) {
		svc, _, _ := newTaskService(t)
		_, err := svc.Update(ctx, userID, uuid.New(), service.TaskUpdate{})
		assert.ErrorIs(t, err, service.ErrNothingToUpdate)
	})

	t.Run("invalid status", func(t *testing.T) {
		svc, _, _ := newTaskService(t)
		status := domain.TaskStatus("done")
		_, err := svc.Update(ctx, userID, uuid.New(), service.TaskUpdate{Status: &status})
		assert.ErrorIs(t, err, domain.ErrInvalidTaskStatus)
	})

	t.Run("notified is reserved", func(t *testing.T) {
		svc, _, _ := newTaskService(t)
		status := domain.TaskStatusNotified
		_, err := svc.Update(ctx, userID, uuid.New(), service.TaskUpdate{Status: &status})
		assert.ErrorIs(t, err, service.ErrStatusNotSettable)
	})

	t.Run("partial update commits", func(t *testing.T) {
		svc, tasks, sqlMock := newTaskService(t)
		task := existing()
		due := time.Date(2030, 1, 2, 15, 0, 0, 0, time.UTC)

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()
		tasks.On("GetByIDForUser", mock.Anything, task.ID, userID).Return(task, nil)
		tasks.On("ExistsWithDescription", mock.Anything, userID, "Buy oat milk", task.ID).Return(false, nil)
		tasks.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.Task) bool {
			return u.Description == "Buy oat milk" && u.DueDate != nil && u.DueDate.Equal(due)
		})).Return(nil)

		got, err := svc.Update(ctx, userID, task.ID, service.TaskUpdate{
			Description: ptr(" Buy oat milk "),
			DueDate:     &due,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, got.Status)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		tasks.AssertExpectations(t)
	})

	t.Run("renaming onto another task rolls back", func(t *testing.T) {
		svc, tasks, sqlMock := newTaskService(t)
		task := existing()

		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()
		tasks.On("GetByIDForUser", mock.Anything, task.ID, userID).Return(task, nil)
		tasks.On("ExistsWithDescription", mock.Anything, userID, "Walk dog", task.ID).Return(true, nil)

		_, err := svc.Update(ctx, userID, task.ID, service.TaskUpdate{Description: ptr("Walk dog")})

		assert.ErrorIs(t, err, store.ErrTaskExists)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("clearing the due date", func(t *testing.T) {
		svc, tasks, sqlMock := newTaskService(t)
		task := existing()
		due := time.Now().Add(time.Hour)
		task.DueDate = &due

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()
		tasks.On("GetByIDForUser", mock.Anything, task.ID, userID).Return(task, nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(nil)

		got, err := svc.Update(ctx, userID, task.ID, service.TaskUpdate{ClearDueDate: true})

		require.NoError(t, err)
		assert.Nil(t, got.DueDate)
	})

	t.Run("missing task", func(t *testing.T) {
		svc, tasks, sqlMock := newTaskService(t)
		id := uuid.New()

		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()
		tasks.On("GetByIDForUser", mock.Anything, id, userID).Return(nil, store.ErrTaskNotFound)

		_, err := svc.Update(ctx, userID, id, service.TaskUpdate{Status: ptr(domain.TaskStatusCompleted)})

		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestTaskService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	task := &domain.Task{ID: uuid.New(), UserID: owner, Description: "x", Status: domain.TaskStatusPending}

	t.Run("owner", func(t *testing.T) {
		svc, tasks, _ := newTaskService(t)
		tasks.On("GetByID", ctx, task.ID).Return(task, nil)
		tasks.On("UpdateStatus", ctx, task.ID, domain.TaskStatusInProgress).Return(nil)

		got, err := svc.UpdateStatus(ctx, owner, task.ID, domain.TaskStatusInProgress)

		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusInProgress, got.Status)
	})

	t.Run("another user", func(t *testing.T) {
		svc, tasks, _ := newTaskService(t)
		tasks.On("GetByID", ctx, task.ID).Return(task, nil)

		_, err := svc.UpdateStatus(ctx, uuid.New(), task.ID, domain.TaskStatusCompleted)

		assert.ErrorIs(t, err, service.ErrNotOwned)
		tasks.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing", func(t *testing.T) {
		svc, tasks, _ := newTaskService(t)
		id := uuid.New()
		tasks.On("GetByID", ctx, id).Return(nil, store.ErrTaskNotFound)

		_, err := svc.UpdateStatus(ctx, owner, id, domain.TaskStatusCompleted)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("invalid", func(t *testing.T) {
		svc, _, _ := newTaskService(t)
		_, err := svc.UpdateStatus(ctx, owner, task.ID, "archived")
		assert.ErrorIs(t, err, domain.ErrInvalidTaskStatus)
	})
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		due     *time.Time
		pastDue bool
	}{
		{"past due", &past, true},
		{"future", &future, false},
		{"no due date", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, tasks, _ := newTaskService(t)
			task := &domain.Task{ID: uuid.New(), UserID: userID, Description: "x", DueDate: tc.due}
			tasks.On("GetByIDForUser", ctx, task.ID, userID).Return(task, nil)
			tasks.On("Delete", ctx, task.ID).Return(nil)

			pastDue, err := svc.Delete(ctx, userID, task.ID)

			require.NoError(t, err)
			assert.Equal(t, tc.pastDue, pastDue)
		})
	}

	t.Run("missing", func(t *testing.T) {
		svc, tasks, _ := newTaskService(t)
		id := uuid.New()
		tasks.On("GetByIDForUser", ctx, id, userID).Return(nil, store.ErrTaskNotFound)

		_, err := svc.Delete(ctx, userID, id)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		tasks.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestTaskService_List(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, tasks, _ := newTaskService(t)
	tasks.On("ListByUser", ctx, userID).Return([]*domain.Task{}, nil)

	got, err := svc.List(ctx, userID)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
