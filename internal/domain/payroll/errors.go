package payroll

import (
	"errors"

	"github.com/buildcrew/workforce-backend/internal/pkg/validator"
)

var (
	ErrEmployeeNotFound        = errors.New("employee not found")
	ErrEstimationNotFound      = errors.New("payroll estimation not found")
	ErrAutomationStateNotFound = errors.New("payroll automation state not found")
	ErrInvalidWeekStart        = errors.New("week_start must be a valid week start date")
	ErrMissingPayRate          = errors.New("employee has no pay rate configured")
	ErrUnknownSalaryType       = errors.New("employee has an unknown salary type")
	ErrPersistence             = errors.New("payroll persistence failure")
	ErrAutomationStopped       = errors.New("payroll automation is stopped")
)

// IsValidation reports whether err is an input problem that retrying cannot fix.
func IsValidation(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &validationErrs) ||
		errors.Is(err, ErrInvalidWeekStart) ||
		errors.Is(err, ErrMissingPayRate) ||
		errors.Is(err, ErrUnknownSalaryType)
}

// IsRetryable reports whether err is a transient storage failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}
