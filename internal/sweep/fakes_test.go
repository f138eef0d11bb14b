package sweep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmgr-api/internal/domain"
	"github.com/phrazzld/taskmgr-api/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryTasks is an in-memory TaskRepository applying the same window and
// status filter as the SQL query.
type memoryTasks struct {
	mu        sync.Mutex
	tasks     map[uuid.UUID]*domain.Task
	emails    map[uuid.UUID]string
	order     []uuid.UUID
	findErr   error
	deleteErr error
	updateErr error
	findCalls int
}

func newMemoryTasks() *memoryTasks {
	return &memoryTasks{
		tasks:  map[uuid.UUID]*domain.Task{},
		emails: map[uuid.UUID]string{},
	}
}

func (m *memoryTasks) add(email, description string, due time.Time, status domain.TaskStatus) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID := uuid.New()
	d := due
	task := &domain.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Description: description,
		DueDate:     &d,
		Status:      status,
	}
	m.tasks[task.ID] = task
	m.emails[userID] = email
	m.order = append(m.order, task.ID)
	return task
}

func (m *memoryTasks) get(id uuid.UUID) (*domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}

func (m *memoryTasks) FindDue(_ context.Context, from, to time.Time, excluded []domain.TaskStatus) ([]store.DueTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}

	var out []store.DueTask
	for _, id := range m.order {
		t, ok := m.tasks[id]
		if !ok || t.DueDate == nil {
			continue
		}
		if !t.DueDate.After(from) || t.DueDate.After(to) {
			continue
		}
		terminal := false
		for _, s := range excluded {
			if t.Status == s {
				terminal = true
			}
		}
		if terminal {
			continue
		}
		out = append(out, store.DueTask{Task: *t, OwnerEmail: m.emails[t.UserID]})
	}
	return out, nil
}

func (m *memoryTasks) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memoryTasks) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = status
	return nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

var okPinger = pingerFunc(func(context.Context) error { return nil })

// recordingNotifier counts sends and fails the first failures calls.
type recordingNotifier struct {
	mu       sync.Mutex
	failures int
	err      error
	sent     []string
	attempts int
}

func (n *recordingNotifier) Send(_ context.Context, to, description string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.failures < 0 || n.attempts <= n.failures {
		if n.err != nil {
			return n.err
		}
		return errors.New("smtp: connection refused")
	}
	n.sent = append(n.sent, to+"|"+description)
	return nil
}

func (n *recordingNotifier) Attempts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.attempts
}
