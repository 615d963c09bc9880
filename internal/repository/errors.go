// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to act on a resource owned by someone else or scoped to
// another showroom, while ErrInvalidState signals that an operation is
// not legal for the entity's current status (e.g. editing an invoice
// that has already been accepted or paid).
package repository

import "errors"

// ErrNotFound is returned when the requested entity does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own or that belongs to another showroom.
// Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidState is returned when an operation is not legal for the
// entity's current status, such as editing a paid invoice or marking a
// non-pending payment as paid. Handlers should translate this into an
// HTTP 409 response.
var ErrInvalidState = errors.New("invalid state")

// ErrUsernameExists and ErrEmailExists are returned by user creation when
// the unique constraints fire. Handlers translate them into field-level
// 400 responses.
var (
	ErrUsernameExists = errors.New("username already taken")
	ErrEmailExists    = errors.New("email already registered")
)
