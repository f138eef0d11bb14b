package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskmgr-api/internal/domain"
	"github.com/phrazzld/taskmgr-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaskStoreMock(t *testing.T) (*PostgresTaskStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresTaskStore(db, nil), mock
}

var taskRowColumns = []string{"id", "user_id", "description", "due_date", "status", "created_at", "updated_at"}

func TestPostgresTaskStore_Create(t *testing.T) {
	ctx := context.Background()
	due := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("inserts task", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		task, err := domain.NewTask(uuid.New(), "  write report ", &due)
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO tasks").
			WithArgs(task.ID, task.UserID, "write report", sqlmock.AnyArg(),
				string(domain.TaskStatusPending), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(ctx, task))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to ErrTaskExists", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		task, err := domain.NewTask(uuid.New(), "write report", nil)
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO tasks").
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

		assert.ErrorIs(t, s.Create(ctx, task), store.ErrTaskExists)
	})

	t.Run("maps missing owner to ErrInvalidEntity", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		task, err := domain.NewTask(uuid.New(), "write report", nil)
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO tasks").
			WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode})

		assert.ErrorIs(t, s.Create(ctx, task), store.ErrInvalidEntity)
	})

	t.Run("rejects invalid task without touching the database", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		task := &domain.Task{ID: uuid.New(), UserID: uuid.New(), Status: domain.TaskStatusPending}

		assert.ErrorIs(t, s.Create(ctx, task), domain.ErrEmptyTaskDescription)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTaskStore_GetByIDForUser(t *testing.T) {
	ctx := context.Background()
	id, userID := uuid.New(), uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("found", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		rows := sqlmock.NewRows(taskRowColumns).
			AddRow(id.String(), userID.String(), "buy milk", nil, "inProgress", now, now)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1 AND user_id = $2")).
			WithArgs(id, userID).
			WillReturnRows(rows)

		task, err := s.GetByIDForUser(ctx, id, userID)
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
		assert.Equal(t, domain.TaskStatusInProgress, task.Status)
		assert.Nil(t, task.DueDate)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		mock.ExpectQuery("FROM tasks").WillReturnError(sql.ErrNoRows)

		_, err := s.GetByIDForUser(ctx, id, userID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStore_ListByUser(t *testing.T) {
	s, mock := newTaskStoreMock(t)
	userID := uuid.New()

	mock.ExpectQuery("FROM tasks WHERE user_id").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	tasks, err := s.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestPostgresTaskStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("updates row", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		mock.ExpectExec("UPDATE tasks SET status").
			WithArgs("notified", sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.UpdateStatus(ctx, id, domain.TaskStatusNotified))
	})

	t.Run("missing row", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		mock.ExpectExec("UPDATE tasks SET status").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.UpdateStatus(ctx, id, domain.TaskStatusCompleted), store.ErrTaskNotFound)
	})

	t.Run("invalid status", func(t *testing.T) {
		s, _ := newTaskStoreMock(t)
		assert.ErrorIs(t, s.UpdateStatus(ctx, id, "archived"), domain.ErrInvalidTaskStatus)
	})
}

func TestPostgresTaskStore_Delete(t *testing.T) {
	s, mock := newTaskStoreMock(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM tasks").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM tasks").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.Delete(context.Background(), id))
	assert.ErrorIs(t, s.Delete(context.Background(), id), store.ErrTaskNotFound)
}

func TestPostgresTaskStore_FindDue(t *testing.T) {
	ctx := context.Background()
	to := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	from := to.Add(-time.Hour)

	t.Run("joins owner email and excludes statuses", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		id, userID := uuid.New(), uuid.New()
		due := to.Add(-10 * time.Minute)

		rows := sqlmock.NewRows(append(taskRowColumns, "email")).
			AddRow(id.String(), userID.String(), "pay rent", due, "pending", from, from, "a@example.com").
			AddRow(uuid.NewString(), uuid.NewString(), "orphan", due, "cancelled", from, from, "")
		mock.ExpectQuery(regexp.QuoteMeta("t.status NOT IN ($3, $4)")).
			WithArgs(from, to, "completed", "notified").
			WillReturnRows(rows)

		got, err := s.FindDue(ctx, from, to, domain.SweepTerminalStatuses)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, id, got[0].Task.ID)
		assert.Equal(t, "a@example.com", got[0].OwnerEmail)
		require.NotNil(t, got[0].Task.DueDate)
		assert.True(t, got[0].Task.DueDate.Equal(due))
		assert.Empty(t, got[1].OwnerEmail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates query errors", func(t *testing.T) {
		s, mock := newTaskStoreMock(t)
		mock.ExpectQuery("FROM tasks t").WillReturnError(errors.New("connection reset"))

		_, err := s.FindDue(ctx, from, to, nil)
		assert.Error(t, err)
	})
}

func TestBuildFindDueQuery(t *testing.T) {
	to := time.Now()
	from := to.Add(-time.Hour)

	query, args := buildFindDueQuery(from, to, nil)
	assert.Contains(t, query, "t.due_date > $1 AND t.due_date <= $2")
	assert.NotContains(t, query, "NOT IN")
	assert.Len(t, args, 2)

	query, args = buildFindDueQuery(from, to, []domain.TaskStatus{domain.TaskStatusCompleted})
	assert.Contains(t, query, "NOT IN ($3)")
	assert.Equal(t, "completed", args[2])
	assert.Contains(t, query, "ORDER BY t.due_date ASC")
}
