package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
	"github.com/buildcrew/workforce-backend/internal/domain/auth"
	"github.com/buildcrew/workforce-backend/internal/domain/employee"
	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/buildcrew/workforce-backend/internal/domain/site"
	"github.com/buildcrew/workforce-backend/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")
	case errors.Is(err, auth.ErrEmployeeIDRequired):
		Forbidden(w, err.Error())
	case errors.Is(err, auth.ErrAdminAccessRequired):
		Forbidden(w, err.Error())
	case errors.Is(err, auth.ErrManagerAccessRequired):
		Forbidden(w, err.Error())

	// Employee and site errors
	case errors.Is(err, employee.ErrEmployeeNotFound), errors.Is(err, payroll.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is inactive")
	case errors.Is(err, site.ErrSiteNotFound):
		NotFound(w, "Site not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrNotCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrLunchAlreadyStarted),
		errors.Is(err, attendance.ErrLunchNotStarted),
		errors.Is(err, attendance.ErrLunchAlreadyEnded):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrOutsideAllowedRadius):
		BadRequest(w, "You are outside the allowed radius", nil)
	case errors.Is(err, attendance.ErrNoSiteAssigned):
		BadRequest(w, "No site assigned to employee", nil)
	case errors.Is(err, attendance.ErrInvalidDateRange):
		BadRequest(w, "Invalid date range", nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrInvalidWeekStart):
		ValidationError(w, map[string]string{"week_start": err.Error()})
	case errors.Is(err, payroll.ErrMissingPayRate), errors.Is(err, payroll.ErrUnknownSalaryType):
		ValidationError(w, map[string]string{"salary": err.Error()})
	case errors.Is(err, payroll.ErrEstimationNotFound):
		NotFound(w, "Payroll estimation not found")
	case errors.Is(err, payroll.ErrAutomationStopped):
		ServiceUnavailable(w, "Payroll automation is shutting down")
	case errors.Is(err, payroll.ErrPersistence):
		slog.Error("payroll storage unavailable", "error", err)
		ServiceUnavailable(w, "Payroll storage is temporarily unavailable")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
