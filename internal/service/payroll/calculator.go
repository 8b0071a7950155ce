package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
	"github.com/buildcrew/workforce-backend/internal/domain/employee"
	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/buildcrew/workforce-backend/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CalculatorConfig struct {
	Policy             payroll.Policy
	PersistenceTimeout time.Duration
	Now                func() time.Time
}

type calculator struct {
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	payrollRepo    payroll.PayrollRepository
	policy         payroll.Policy
	timeout        time.Duration
	now            func() time.Time
}

func NewCalculator(
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	payrollRepo payroll.PayrollRepository,
	cfg CalculatorConfig,
) payroll.Calculator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &calculator{
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		payrollRepo:    payrollRepo,
		policy:         cfg.Policy,
		timeout:        cfg.PersistenceTimeout,
		now:            cfg.Now,
	}
}

// Calculate recomputes and upserts the estimation for one employee and week.
func (c *calculator) Calculate(ctx context.Context, employeeID string, weekStart time.Time) (payroll.Estimation, error) {
	if employeeID == "" {
		return payroll.Estimation{}, validator.ValidationErrors{{Field: "employee_id", Message: "is required"}}
	}
	if weekStart.IsZero() {
		return payroll.Estimation{}, validator.ValidationErrors{{Field: "week_start", Message: "is required"}}
	}
	week := payroll.NewWeek(weekStart)

	emp, err := withTimeout(ctx, c.timeout, func(ctx context.Context) (employee.Employee, error) {
		return c.employeeRepo.GetByID(ctx, employeeID)
	})
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.Estimation{}, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, employeeID)
		}
		return payroll.Estimation{}, persistenceError("load employee", err)
	}

	rate, err := c.hourlyRate(emp)
	if err != nil {
		return payroll.Estimation{}, err
	}

	records, err := withTimeout(ctx, c.timeout, func(ctx context.Context) ([]attendance.AttendanceRecord, error) {
		return c.attendanceRepo.ListByEmployeeAndRange(ctx, emp.ID, week.Start, week.End)
	})
	if err != nil {
		return payroll.Estimation{}, persistenceError("load attendance", err)
	}

	adj, err := withTimeout(ctx, c.timeout, func(ctx context.Context) (*payroll.Adjustment, error) {
		return c.payrollRepo.GetAdjustment(ctx, emp.ID, week.Start)
	})
	if err != nil {
		return payroll.Estimation{}, persistenceError("load adjustment", err)
	}

	est := c.estimate(emp.ID, week, rate, records, adj)
	est.UpdatedAt = c.now()

	saved, err := withTimeout(ctx, c.timeout, func(ctx context.Context) (payroll.Estimation, error) {
		return c.payrollRepo.UpsertEstimation(ctx, est)
	})
	if err != nil {
		return payroll.Estimation{}, persistenceError("upsert estimation", err)
	}
	if saved.EmployeeName == nil {
		saved.EmployeeName = &emp.FullName
	}
	return saved, nil
}

// hourlyRate resolves the employee's pay per hour. Daily salaries are spread over
// the regular day.
func (c *calculator) hourlyRate(emp employee.Employee) (decimal.Decimal, error) {
	switch emp.SalaryType {
	case employee.SalaryTypeHourly:
		if emp.HourlyRate == nil || !emp.HourlyRate.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: hourly rate for employee %s", payroll.ErrMissingPayRate, emp.ID)
		}
		return *emp.HourlyRate, nil
	case employee.SalaryTypeDaily:
		if emp.DailySalary == nil || !emp.DailySalary.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: daily salary for employee %s", payroll.ErrMissingPayRate, emp.ID)
		}
		return emp.DailySalary.Div(c.policy.DailyRegularHours), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", payroll.ErrUnknownSalaryType, emp.SalaryType)
	}
}

func (c *calculator) estimate(employeeID string, week payroll.Week, rate decimal.Decimal, records []attendance.AttendanceRecord, adj *payroll.Adjustment) payroll.Estimation {
	regular, overtime := decimal.Zero, decimal.Zero
	for _, r := range records {
		if !week.Contains(r.Date) {
			continue
		}
		dayRegular, dayOvertime := attendance.SplitHours(r.WorkedHours(), c.policy.DailyRegularHours)
		regular = regular.Add(dayRegular)
		overtime = overtime.Add(dayOvertime)
	}

	basePay := regular.Mul(rate).Round(2)
	overtimePay := overtime.Mul(rate).Mul(c.policy.OvertimeMultiplier).Round(2)

	bonuses := decimal.Zero
	if adj != nil {
		bonuses = adj.Bonuses.Round(2)
	}
	gross := basePay.Add(overtimePay).Add(bonuses)

	var deductions decimal.Decimal
	if adj != nil && adj.Deductions != nil {
		deductions = adj.Deductions.Round(2)
	} else {
		deductions = gross.Mul(c.policy.DeductionRate).Round(2)
	}

	return payroll.Estimation{
		EmployeeID:    employeeID,
		WeekStart:     week.Start,
		WeekEnd:       week.End,
		RegularHours:  regular.Round(2),
		OvertimeHours: overtime.Round(2),
		BasePay:       basePay,
		OvertimePay:   overtimePay,
		Bonuses:       bonuses,
		Deductions:    deductions,
		GrossTotal:    gross,
		NetTotal:      gross.Sub(deductions),
	}
}
