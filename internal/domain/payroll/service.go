package payroll

import (
	"context"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/activity"
)

// Calculator computes and stores one employee's estimation for one week.
type Calculator interface {
	Calculate(ctx context.Context, employeeID string, weekStart time.Time) (Estimation, error)
}

// AutomationService exposes the operator controls of the payroll scheduler.
type AutomationService interface {
	Status(ctx context.Context) (AutomationStatusResponse, error)
	SetActive(ctx context.Context, actor activity.Actor, active bool) (AutomationStatusResponse, error)
	RecalculateAll(ctx context.Context, actor activity.Actor) (BatchResult, error)
	RecalculateEmployee(ctx context.Context, actor activity.Actor, employeeID string) (EstimationResponse, error)
	CurrentWeek() Week
}

// SummaryService computes the weekly aggregation. It never mutates state.
type SummaryService interface {
	Summary(ctx context.Context, week Week) (PayrollSummary, error)
	ListEstimations(ctx context.Context, week Week) ([]EstimationResponse, error)
}
