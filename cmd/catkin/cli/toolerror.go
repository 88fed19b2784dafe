// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors so verbs and tests can tell
// failure modes apart without parsing error text.
type ErrorCategory string

const (
	// CategoryValidation indicates bad input: unknown flags, wrong
	// argument counts, conflicting options. The user should fix the
	// command line.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced thing does not exist:
	// no enclosing workspace, unknown package, unknown profile.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryConflict indicates the operation conflicts with existing
	// state: a space owned by another build tool, a profile that
	// already exists.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryInternal indicates an unexpected failure: I/O errors,
	// corrupt metadata the tool itself wrote.
	CategoryInternal ErrorCategory = "internal"
)

// CommandError is a categorized error returned by verbs. It wraps the
// underlying error so errors.Is and errors.As keep working through it.
type CommandError struct {
	Category ErrorCategory
	Err      error
}

func (e *CommandError) Error() string { return e.Err.Error() }

func (e *CommandError) Unwrap() error { return e.Err }

// Validation creates a validation error: the command line is wrong.
func Validation(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Conflict creates a conflict error: the operation clashes with existing state.
func Conflict(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure or bug.
func Internal(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
