// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and middleware to distinguish between different failure
// scenarios without inspecting driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when a record id does not resolve to an existing
// row. Handlers translate this into a flash notice plus redirect rather
// than a hard error page.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into a
// permission-denied flash notice; no state is mutated.
var ErrForbidden = errors.New("forbidden")

// ErrUsernameExists is returned by user creation when the username is
// already taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned by user creation when the email is already
// registered.
var ErrEmailExists = errors.New("email already exists")
