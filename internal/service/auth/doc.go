// Package auth issues and validates JWT access and refresh tokens, tracks
// revoked refresh tokens, and verifies bcrypt password hashes.
package auth
