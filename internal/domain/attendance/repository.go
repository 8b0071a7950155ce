package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// GetByEmployeeAndDate returns nil when the employee has no record for that date.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*AttendanceRecord, error)

	// Upsert inserts or updates the record keyed by (employee_id, date).
	Upsert(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	// ListByEmployeeAndRange returns records with from <= date <= to, ordered by date.
	ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceRecord, error)
}
