// Package service contains the application use cases: registration and
// login, profile lookup, and task management. Services coordinate domain
// objects with the repositories declared in internal/store and never depend
// on a concrete storage implementation.
//
// Expected failures are reported with sentinel errors (here, in domain and in
// store) so the API layer can map them to HTTP status codes with errors.Is.
package service
