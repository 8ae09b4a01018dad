// Package repository contains the repository interfaces and related errors.
package repository

import "errors"

// Repository errors define common error conditions across all repositories.
// These errors are used to communicate specific failure conditions
// from the data access layer to the application layer.
var (
	// ErrMonitorNotFound is returned when a monitor cannot be found by ID.
	ErrMonitorNotFound = errors.New("monitor not found")

	// ErrDuplicateMonitor is returned when creating a monitor whose ID
	// already exists.
	ErrDuplicateMonitor = errors.New("monitor already exists")

	// ErrOptimisticLock is returned when an update fails due to
	// a version mismatch (concurrent modification).
	ErrOptimisticLock = errors.New("optimistic lock conflict: record was modified concurrently")

	// ErrInvalidInput is returned when repository receives invalid input.
	ErrInvalidInput = errors.New("invalid input provided")
)

// IsNotFoundError checks if the error is a not found error.
//
// Parameters:
//   - err: error to check
//
// Returns:
//   - bool: true if the error indicates a resource was not found
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrMonitorNotFound)
}

// IsConflictError checks if the error is a duplicate or version conflict.
//
// Parameters:
//   - err: error to check
//
// Returns:
//   - bool: true if the write conflicted with existing state
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDuplicateMonitor) ||
		errors.Is(err, ErrOptimisticLock)
}
