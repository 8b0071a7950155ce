package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll estimations.
type PayrollRepository interface {
	// UpsertEstimation inserts or overwrites the row keyed by (employee_id, week_start).
	UpsertEstimation(ctx context.Context, estimation Estimation) (Estimation, error)
	GetEstimation(ctx context.Context, employeeID string, weekStart time.Time) (Estimation, error)
	ListEstimationsByWeek(ctx context.Context, weekStart time.Time) ([]Estimation, error)

	// GetAdjustment returns nil when no adjustment was entered for that week.
	GetAdjustment(ctx context.Context, employeeID string, weekStart time.Time) (*Adjustment, error)
}

// AutomationStateRepository persists the scheduler's single state row.
type AutomationStateRepository interface {
	GetState(ctx context.Context) (AutomationState, error)
	SaveState(ctx context.Context, state AutomationState) error
}
