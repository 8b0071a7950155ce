package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estimation is the computed payroll line for one employee and one week.
// There is at most one per (EmployeeID, WeekStart).
type Estimation struct {
	ID            string
	EmployeeID    string
	WeekStart     time.Time
	WeekEnd       time.Time
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	BasePay       decimal.Decimal
	OvertimePay   decimal.Decimal
	Bonuses       decimal.Decimal
	Deductions    decimal.Decimal
	GrossTotal    decimal.Decimal
	NetTotal      decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Joined fields
	EmployeeName *string
}

// Adjustment holds operator-entered extras for one employee and week.
// A nil Deductions means no explicit breakdown exists and the policy rate applies.
type Adjustment struct {
	EmployeeID string
	WeekStart  time.Time
	Bonuses    decimal.Decimal
	Deductions *decimal.Decimal
	Notes      *string
	UpdatedAt  time.Time
}

// Policy holds the organization-level payroll rules.
type Policy struct {
	DailyRegularHours  decimal.Decimal
	OvertimeMultiplier decimal.Decimal
	DeductionRate      decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		DailyRegularHours:  decimal.NewFromInt(8),
		OvertimeMultiplier: decimal.NewFromFloat(1.5),
		DeductionRate:      decimal.NewFromFloat(0.15),
	}
}

// AutomationState is the persisted, deployment-wide scheduler bookkeeping.
type AutomationState struct {
	Active         bool
	LastProcessing *time.Time
	NextCutoff     *time.Time
	UpdatedAt      time.Time
}

// Trigger names what caused a recompute.
type Trigger string

const (
	TriggerCutoff       Trigger = "cutoff"
	TriggerReactive     Trigger = "reactive"
	TriggerManualBulk   Trigger = "manual_bulk"
	TriggerManualSingle Trigger = "manual_single"
)

// ReactiveTarget selects which week a reactive recompute covers.
type ReactiveTarget string

const (
	ReactiveTargetRecordWeek  ReactiveTarget = "record_week"
	ReactiveTargetCurrentWeek ReactiveTarget = "current_week"
)
