// Package store declares the persistence contracts for users and tasks.
// Implementations live under internal/platform.
package store
