package payroll

import (
	"time"

	"github.com/buildcrew/workforce-backend/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type EstimationResponse struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employee_id"`
	EmployeeName  string          `json:"employee_name,omitempty"`
	WeekStart     string          `json:"week_start"`
	WeekEnd       string          `json:"week_end"`
	RegularHours  decimal.Decimal `json:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	BasePay       decimal.Decimal `json:"base_pay"`
	OvertimePay   decimal.Decimal `json:"overtime_pay"`
	Bonuses       decimal.Decimal `json:"bonuses"`
	Deductions    decimal.Decimal `json:"deductions"`
	GrossTotal    decimal.Decimal `json:"gross_total"`
	NetTotal      decimal.Decimal `json:"net_total"`
	UpdatedAt     string          `json:"updated_at"`
}

func ToEstimationResponse(e Estimation) EstimationResponse {
	name := ""
	if e.EmployeeName != nil {
		name = *e.EmployeeName
	}
	return EstimationResponse{
		ID:            e.ID,
		EmployeeID:    e.EmployeeID,
		EmployeeName:  name,
		WeekStart:     e.WeekStart.Format(dateLayout),
		WeekEnd:       e.WeekEnd.Format(dateLayout),
		RegularHours:  e.RegularHours,
		OvertimeHours: e.OvertimeHours,
		BasePay:       e.BasePay,
		OvertimePay:   e.OvertimePay,
		Bonuses:       e.Bonuses,
		Deductions:    e.Deductions,
		GrossTotal:    e.GrossTotal,
		NetTotal:      e.NetTotal,
		UpdatedAt:     e.UpdatedAt.Format(time.RFC3339),
	}
}

// BatchResult is the outcome of a bulk recompute. A failed employee never aborts the batch.
type BatchResult struct {
	WeekStart string   `json:"week_start"`
	Trigger   Trigger  `json:"trigger"`
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed"`
}

// SummaryRow is one active employee with the week's estimation, if any.
type SummaryRow struct {
	EmployeeID   string              `json:"employee_id"`
	EmployeeName string              `json:"employee_name"`
	Estimation   *EstimationResponse `json:"payroll"`
}

// PayrollSummary is the read-only weekly roll-up shown on operator dashboards.
// PendingApprovals mirrors ProcessedCount until estimations carry an approval state.
type PayrollSummary struct {
	WeekStart        string          `json:"week_start"`
	WeekEnd          string          `json:"week_end"`
	TotalEmployees   int             `json:"total_employees"`
	ProcessedCount   int             `json:"processed_count"`
	TotalPayroll     decimal.Decimal `json:"total_payroll"`
	PendingApprovals int             `json:"pending_approvals"`
	Employees        []SummaryRow    `json:"employees,omitempty"`
}

type AutomationStatusResponse struct {
	Active         bool    `json:"active"`
	LastProcessing *string `json:"last_processing,omitempty"`
	NextCutoff     *string `json:"next_cutoff,omitempty"`
	CurrentWeek    string  `json:"current_week"`
	PendingRuns    int     `json:"pending_runs"`
}

type RecalculateEmployeeRequest struct {
	EmployeeID string `json:"employee_id"`
}

func (r *RecalculateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SetAutomationRequest struct {
	Active *bool `json:"active"`
}

func (r *SetAutomationRequest) Validate() error {
	if r.Active == nil {
		return validator.ValidationErrors{{Field: "active", Message: "is required"}}
	}
	return nil
}
