//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmgr-api/internal/domain"
	"github.com/phrazzld/taskmgr-api/internal/platform/postgres"
	"github.com/phrazzld/taskmgr-api/internal/store"
	"github.com/phrazzld/taskmgr-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func createUser(t *testing.T, ctx context.Context, tx *sql.Tx, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser("Test User", email, "password123")
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresUserStore(tx, bcrypt.MinCost, nil).Create(ctx, user))
	return user
}

func TestStores_Integration(t *testing.T) {
	db := testdb.Postgres(t)
	ctx := context.Background()

	t.Run("user round trip and duplicate email", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			users := postgres.NewPostgresUserStore(tx, bcrypt.MinCost, nil)
			user := createUser(t, ctx, tx, "round@example.com")

			got, err := users.GetByEmail(ctx, "ROUND@example.com")
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)

			dup, err := domain.NewUser("Other", "round@example.com", "password123")
			require.NoError(t, err)
			assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)
		})
	})

	t.Run("task uniqueness per user", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			tasks := postgres.NewPostgresTaskStore(tx, nil)
			user := createUser(t, ctx, tx, "unique@example.com")

			first, err := domain.NewTask(user.ID, "water plants", nil)
			require.NoError(t, err)
			require.NoError(t, tasks.Create(ctx, first))

			exists, err := tasks.ExistsWithDescription(ctx, user.ID, "water plants", uuid.Nil)
			require.NoError(t, err)
			assert.True(t, exists)

			exists, err = tasks.ExistsWithDescription(ctx, user.ID, "water plants", first.ID)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	})

	t.Run("find due honors window and terminal statuses", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			tasks := postgres.NewPostgresTaskStore(tx, nil)
			user := createUser(t, ctx, tx, "due@example.com")
			now := time.Now().UTC().Truncate(time.Second)

			mk := func(desc string, due time.Time, status domain.TaskStatus) *domain.Task {
				task, err := domain.NewTask(user.ID, desc, &due)
				require.NoError(t, err)
				task.Status = status
				require.NoError(t, tasks.Create(ctx, task))
				return task
			}

			inWindow := mk("in window", now.Add(-10*time.Minute), domain.TaskStatusPending)
			mk("at lower bound", now.Add(-time.Hour), domain.TaskStatusPending)
			mk("future", now.Add(time.Minute), domain.TaskStatusPending)
			mk("completed", now.Add(-5*time.Minute), domain.TaskStatusCompleted)
			mk("notified", now.Add(-5*time.Minute), domain.TaskStatusNotified)
			atUpper := mk("at upper bound", now, domain.TaskStatusInProgress)

			due, err := tasks.FindDue(ctx, now.Add(-time.Hour), now, domain.SweepTerminalStatuses)
			require.NoError(t, err)
			require.Len(t, due, 2)
			assert.Equal(t, inWindow.ID, due[0].Task.ID)
			assert.Equal(t, atUpper.ID, due[1].Task.ID)
			assert.Equal(t, "due@example.com", due[0].OwnerEmail)
		})
	})

	t.Run("deleting a user cascades to tasks", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			users := postgres.NewPostgresUserStore(tx, bcrypt.MinCost, nil)
			tasks := postgres.NewPostgresTaskStore(tx, nil)
			user := createUser(t, ctx, tx, "cascade@example.com")

			task, err := domain.NewTask(user.ID, "gone soon", nil)
			require.NoError(t, err)
			require.NoError(t, tasks.Create(ctx, task))

			require.NoError(t, users.Delete(ctx, user.ID))
			_, err = tasks.GetByID(ctx, task.ID)
			assert.ErrorIs(t, err, store.ErrTaskNotFound)
		})
	})
}
