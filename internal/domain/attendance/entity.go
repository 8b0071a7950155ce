package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceRecord is one employee's punches for one calendar day.
// Punches fill in order: clock-in, lunch-start, lunch-end, clock-out.
type AttendanceRecord struct {
	ID                string
	EmployeeID        string
	SiteID            *string
	Date              time.Time
	ClockIn           *time.Time
	LunchStart        *time.Time
	LunchEnd          *time.Time
	ClockOut          *time.Time
	ClockInLatitude   *float64
	ClockInLongitude  *float64
	ClockOutLatitude  *float64
	ClockOutLongitude *float64
	TotalHours        decimal.Decimal
	OvertimeHours     decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

var secondsPerHour = decimal.NewFromInt(3600)

// WorkedHours is clock-out minus clock-in, less a completed lunch break, unrounded.
// Callers round only what they store. An open day (no clock-in or no clock-out) and
// any negative span count as zero.
func (r AttendanceRecord) WorkedHours() decimal.Decimal {
	if r.ClockIn == nil || r.ClockOut == nil {
		return decimal.Zero
	}

	worked := r.ClockOut.Sub(*r.ClockIn)
	if r.LunchStart != nil && r.LunchEnd != nil {
		if lunch := r.LunchEnd.Sub(*r.LunchStart); lunch > 0 {
			worked -= lunch
		}
	}
	if worked <= 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(worked / time.Second)).Div(secondsPerHour)
}

// IsClosed reports whether the day has both clock-in and clock-out.
func (r AttendanceRecord) IsClosed() bool {
	return r.ClockIn != nil && r.ClockOut != nil
}

// SplitHours splits a day's worked hours at the regular-hours threshold.
func SplitHours(worked, threshold decimal.Decimal) (regular, overtime decimal.Decimal) {
	if worked.GreaterThan(threshold) {
		return threshold, worked.Sub(threshold)
	}
	return worked, decimal.Zero
}

// ChangeAction names the punch that mutated a record.
type ChangeAction string

const (
	ActionClockIn    ChangeAction = "clock_in"
	ActionLunchStart ChangeAction = "lunch_start"
	ActionLunchEnd   ChangeAction = "lunch_end"
	ActionClockOut   ChangeAction = "clock_out"
	ActionCorrection ChangeAction = "correction"
)

// Change is the notification emitted whenever an attendance record is inserted or updated.
type Change struct {
	EmployeeID string       `json:"employee_id"`
	RecordID   string       `json:"record_id"`
	Date       time.Time    `json:"date"`
	Action     ChangeAction `json:"action"`
	OccurredAt time.Time    `json:"occurred_at"`
}
