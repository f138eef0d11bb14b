// Package api contains the HTTP handlers of the task manager: signup, login
// and token refresh, the profile endpoint, and task CRUD. Handlers decode and
// validate JSON, call into internal/service, and translate service errors to
// status codes with MapErrorToStatusCode and GetSafeErrorMessage so that
// internal details never reach clients.
package api
