// Package errors defines the sentinel error taxonomy shared by every module.
// Use cases wrap these sentinels around module-specific messages; the HTTP
// layer maps each sentinel to a status code, so callers branch with errors.Is
// instead of inspecting strings.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a collision with existing data, such as a duplicate key.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed. Handlers render it with
	// one generic body regardless of cause.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated principal lacks the required authority.
	ErrForbidden = errors.New("forbidden")

	// ErrLocked indicates the account is in a lockout cooldown after repeated failures.
	ErrLocked = errors.New("locked")

	// ErrUnavailable indicates an infrastructure dependency failed or timed out.
	// Authorization paths treat it as a denial.
	ErrUnavailable = errors.New("unavailable")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap adds context to an error while preserving the chain, so the sentinel
// underneath stays matchable with Is.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
