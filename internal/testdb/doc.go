// Package testdb starts throwaway PostgreSQL and Redis containers for
// integration tests. Callers guard their tests with the "integration" build
// tag; Docker must be available.
package testdb
