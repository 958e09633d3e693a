package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConversionFailed = errors.New("conversion failed")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConversionError aborts a run when a referenced project cannot be
// registered. The project named here was not saved.
type ConversionError struct {
	Project   string
	PackageID string
	Err       error
}

func (e *ConversionError) Error() string {
	if e.PackageID == "" {
		return fmt.Sprintf("cannot convert %s: %v", e.Project, e.Err)
	}
	return fmt.Sprintf("cannot convert %s in %s: %v", e.PackageID, e.Project, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversionFailed
}
