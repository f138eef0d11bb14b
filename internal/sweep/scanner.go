package sweep

import (
	"context"
	"time"

	"github.com/phrazzld/taskmgr-api/internal/domain"
	"github.com/phrazzld/taskmgr-api/internal/store"
)

// DefaultLookback is the default scan window.
const DefaultLookback = time.Hour

// DueTaskFinder is the query the Scanner needs. store.TaskStore implements it.
type DueTaskFinder interface {
	FindDue(ctx context.Context, from, to time.Time, excluded []domain.TaskStatus) ([]store.DueTask, error)
}

// Scanner finds tasks that became due in (now-lookback, now] and are not in
// a terminal status.
type Scanner struct {
	finder   DueTaskFinder
	lookback time.Duration
}

// NewScanner creates a Scanner. A non-positive lookback selects
// DefaultLookback.
func NewScanner(finder DueTaskFinder, lookback time.Duration) *Scanner {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Scanner{finder: finder, lookback: lookback}
}

// Window returns the scan bounds for now. The lower bound is exclusive.
func (s *Scanner) Window(now time.Time) (from, to time.Time) {
	return now.Add(-s.lookback), now
}

// Scan returns the eligible tasks joined with their owners' addresses.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]store.DueTask, error) {
	from, to := s.Window(now)
	return s.finder.FindDue(ctx, from, to, domain.SweepTerminalStatuses)
}
