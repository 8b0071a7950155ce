package payroll

import (
	"context"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/employee"
	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type summaryService struct {
	employeeRepo employee.EmployeeRepository
	payrollRepo  payroll.PayrollRepository
	timeout      time.Duration
}

func NewSummaryService(employeeRepo employee.EmployeeRepository, payrollRepo payroll.PayrollRepository, timeout time.Duration) payroll.SummaryService {
	return &summaryService{
		employeeRepo: employeeRepo,
		payrollRepo:  payrollRepo,
		timeout:      timeout,
	}
}

// Summary rolls up one week. TotalPayroll covers every stored estimation of the
// week; the counts cover active employees only.
func (s *summaryService) Summary(ctx context.Context, week payroll.Week) (payroll.PayrollSummary, error) {
	employees, err := withTimeout(ctx, s.timeout, s.employeeRepo.ListActive)
	if err != nil {
		return payroll.PayrollSummary{}, persistenceError("list active employees", err)
	}

	estimations, err := withTimeout(ctx, s.timeout, func(ctx context.Context) ([]payroll.Estimation, error) {
		return s.payrollRepo.ListEstimationsByWeek(ctx, week.Start)
	})
	if err != nil {
		return payroll.PayrollSummary{}, persistenceError("list estimations", err)
	}

	total := decimal.Zero
	byEmployee := make(map[string]payroll.Estimation, len(estimations))
	for _, est := range estimations {
		total = total.Add(est.GrossTotal)
		byEmployee[est.EmployeeID] = est
	}

	summary := payroll.PayrollSummary{
		WeekStart:      week.Start.Format(time.DateOnly),
		WeekEnd:        week.End.Format(time.DateOnly),
		TotalEmployees: len(employees),
		TotalPayroll:   total,
		Employees:      make([]payroll.SummaryRow, 0, len(employees)),
	}

	for _, emp := range employees {
		row := payroll.SummaryRow{
			EmployeeID:   emp.ID,
			EmployeeName: emp.FullName,
		}
		if est, ok := byEmployee[emp.ID]; ok {
			resp := payroll.ToEstimationResponse(est)
			row.Estimation = &resp
			if est.GrossTotal.IsPositive() {
				summary.ProcessedCount++
			}
		}
		summary.Employees = append(summary.Employees, row)
	}
	summary.PendingApprovals = summary.ProcessedCount

	return summary, nil
}

func (s *summaryService) ListEstimations(ctx context.Context, week payroll.Week) ([]payroll.EstimationResponse, error) {
	estimations, err := withTimeout(ctx, s.timeout, func(ctx context.Context) ([]payroll.Estimation, error) {
		return s.payrollRepo.ListEstimationsByWeek(ctx, week.Start)
	})
	if err != nil {
		return nil, persistenceError("list estimations", err)
	}

	responses := make([]payroll.EstimationResponse, 0, len(estimations))
	for _, est := range estimations {
		responses = append(responses, payroll.ToEstimationResponse(est))
	}
	return responses, nil
}
