/*
errors.go - Error types for the parts ledger

ERROR CATEGORIES:
  1. Validation errors - missing or invalid input, stale edits
  2. Not-found errors  - unknown part identity or record index
  3. Stock errors      - sale larger than the available quantity
  4. Storage errors    - backend read/write failures

  Categories 1-3 abort the operation before anything is written.
  A failed load (Op "load") aborts a mutation the same way, so an
  unreadable log is never rewritten from an empty copy. A failed save
  does not abort: memory stays authoritative and the failed collections
  are retried on the next save.

USAGE:
  Match with errors.Is on the sentinels, or errors.As on the structured
  types for details:

    var short *inventory.InsufficientStockError
    if errors.As(err, &short) {
        fmt.Println(short.Available)
    }
*/
package inventory

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a required field is missing or invalid.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when no stock entry or record matches.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned when a sale exceeds the available quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStorage is returned when the backend cannot be read or written.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError is returned when a sale names a part that no stock entry
// matches on both number and name.
type NotFoundError struct {
	PartNumber string
	PartName   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("part %q / %q not found in stock", e.PartNumber, e.PartName)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RecordNotFoundError is returned when an index does not address a record.
type RecordNotFoundError struct {
	Collection Collection
	Index      int
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("%s record %d not found", e.Collection, e.Index)
}

func (e *RecordNotFoundError) Unwrap() error {
	return ErrNotFound
}

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	PartNumber string
	PartName   string
	Available  int
	Requested  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.PartNumber, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// StorageError wraps a backend failure with the collections involved.
type StorageError struct {
	Op          string // "load" or "save"
	Collections []Collection
	Err         error
}

func (e *StorageError) Error() string {
	names := make([]string, len(e.Collections))
	for i, c := range e.Collections {
		names[i] = string(c)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, strings.Join(names, ","), e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsNotFound returns true if the error indicates a missing part or record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
