package errdefs

import (
	"errors"
	"fmt"
)

// ParseError is returned when a structured document cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError is returned when an expected file or field is absent.
type NotFoundError struct {
	Path string
	What string
}

func (e *NotFoundError) Error() string {
	if e.What == "" {
		return fmt.Sprintf("%s not found", e.Path)
	}
	return fmt.Sprintf("%s not found in %s", e.What, e.Path)
}

// StoreError wraps an I/O failure reading or writing a manifest file or the version config.
type StoreError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError is returned when a file touched by an update no longer parses.
type ValidationError struct {
	Path      string
	FieldPath string
	Err       error
}

func (e *ValidationError) Error() string {
	if e.FieldPath != "" {
		return fmt.Sprintf("validation failed for %s (record %s): %v", e.Path, e.FieldPath, e.Err)
	}
	return fmt.Sprintf("validation failed for %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsParseError reports whether err contains a *ParseError.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsNotFound reports whether err contains a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsStoreError reports whether err contains a *StoreError.
func IsStoreError(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}

// IsValidationError reports whether err contains a *ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
