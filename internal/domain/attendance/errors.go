package attendance

import "errors"

// Attendance domain errors
var (
	// Punch ordering errors
	ErrAlreadyCheckedIn     = errors.New("you have already clocked in today")
	ErrNotCheckedIn         = errors.New("you have not clocked in yet")
	ErrAlreadyCheckedOut    = errors.New("you have already clocked out")
	ErrLunchAlreadyStarted  = errors.New("lunch break already started")
	ErrLunchNotStarted      = errors.New("lunch break has not started")
	ErrLunchAlreadyEnded    = errors.New("lunch break already ended")
	ErrOutsideAllowedRadius = errors.New("you are outside the allowed radius")
	ErrNoSiteAssigned       = errors.New("no site assigned to employee")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrInvalidDateRange   = errors.New("invalid date range")
)
