// Package errors provides error handling for apiroll.
//
// This package re-exports github.com/cockroachdb/errors, providing stack
// traces, wrapping, and assertion errors for internal invariant violations.
//
// The error taxonomy is strict:
//   - Internal invariant violations (unsupported node shape, a resolved
//     entity with no emit name, an ancillary/primary mismatch) are assertion
//     errors. They abort the current artifact and indicate a bug or a
//     front-end contract breach, never bad user input.
//   - Consistency findings (a public declaration referencing a beta-only
//     type) are NOT errors; they are collector warnings and generation
//     continues best-effort.
//
// Usage:
//
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "building span for declaration")
//	}
//
//	// invariant breach, fatal for the current artifact:
//	return errors.AssertionFailedf("entity %q has no emit name", localName)
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	WithHint     = crdb.WithHint
	WithDetail   = crdb.WithDetail
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Assertions for internal invariant violations
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
	HasAssertionFailure              = crdb.HasAssertionFailure
)

// Sentinel errors for apiroll. Wrap these with errors.Wrap() to add context
// while preserving the type for errors.Is() checks.
var (
	// ErrParse indicates the front-end could not produce a usable tree.
	ErrParse = New("parse failed")

	// ErrConfig indicates the configuration file is missing or invalid.
	ErrConfig = New("invalid configuration")

	// ErrNotResolved indicates rendering was attempted before entity
	// resolution completed; the resolve-then-render protocol was violated.
	ErrNotResolved = New("entity resolution has not run")
)

// IsInvariantViolation reports whether err is (or wraps) an internal
// invariant violation, as opposed to a user-facing failure.
func IsInvariantViolation(err error) bool {
	return err != nil && HasAssertionFailure(err)
}
