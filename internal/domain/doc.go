// Package domain contains the core business entities of the task manager:
// users, their tasks, and the status vocabulary shared by the HTTP API and
// the due-task sweep. It is independent of any storage or delivery mechanism.
package domain
