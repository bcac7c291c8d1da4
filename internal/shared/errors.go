package shared

import "errors"

var (
	// ErrNotFound covers both genuinely missing rows and rows hidden by
	// tenant scoping, so a cross-tenant probe cannot distinguish the two.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is the single login failure surfaced to clients.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when a mutating request carries no token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the supplied token fails the check.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
