/*
errors.go - Centralized error types

ERROR CATEGORIES:
  1. Missing-data conditions (no tariff, no prior reading) are resolved
     by documented fallback policies and never surface as errors.
  2. Malformed input fails fast at the boundary with a ValidationError
     so NaN never propagates through aggregation.
  3. Store-level failures keep the sentinel ErrNotFound so the HTTP
     layer can map them to 404.
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the base of all input validation failures.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError describes rejected client input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IsClientError reports whether the error should map to a 4xx status.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}

// ValidateMeterValue checks a new meter value at the input boundary.
// prev may be nil for the first reading. A value below the predecessor
// is accepted - it becomes an AnomalyMeterRegression - but zero and
// negative absolute values are rejected outright.
func ValidateMeterValue(value decimal.Decimal) error {
	if !value.IsPositive() {
		return &ValidationError{Field: "meterValue", Message: "must be greater than 0"}
	}
	return nil
}
