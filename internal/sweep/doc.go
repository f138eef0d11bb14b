// Package sweep implements the scheduled due-task sweep: find tasks that
// became due within the lookback window, email their owners with bounded
// retry, then delete each notified task or mark it notified.
//
// A Sweeper runs at most one sweep at a time. Triggers that arrive while a
// sweep is running are dropped.
package sweep
