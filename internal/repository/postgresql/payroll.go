package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/buildcrew/workforce-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== ESTIMATIONS ==========

const estimationColumns = `pe.id, pe.employee_id, pe.week_start, pe.week_end,
	pe.regular_hours, pe.overtime_hours, pe.base_pay, pe.overtime_pay,
	pe.bonuses, pe.deductions, pe.gross_total, pe.net_total,
	pe.created_at, pe.updated_at, e.full_name`

func scanEstimation(row pgx.Row) (payroll.Estimation, error) {
	var est payroll.Estimation
	err := row.Scan(
		&est.ID, &est.EmployeeID, &est.WeekStart, &est.WeekEnd,
		&est.RegularHours, &est.OvertimeHours, &est.BasePay, &est.OvertimePay,
		&est.Bonuses, &est.Deductions, &est.GrossTotal, &est.NetTotal,
		&est.CreatedAt, &est.UpdatedAt, &est.EmployeeName,
	)
	return est, err
}

func (r *payrollRepository) UpsertEstimation(ctx context.Context, est payroll.Estimation) (payroll.Estimation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH upserted AS (
			INSERT INTO payroll_estimations (
				employee_id, week_start, week_end, regular_hours, overtime_hours,
				base_pay, overtime_pay, bonuses, deductions, gross_total, net_total
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT ON CONSTRAINT uk_estimation_employee_week DO UPDATE SET
				week_end = EXCLUDED.week_end,
				regular_hours = EXCLUDED.regular_hours,
				overtime_hours = EXCLUDED.overtime_hours,
				base_pay = EXCLUDED.base_pay,
				overtime_pay = EXCLUDED.overtime_pay,
				bonuses = EXCLUDED.bonuses,
				deductions = EXCLUDED.deductions,
				gross_total = EXCLUDED.gross_total,
				net_total = EXCLUDED.net_total,
				updated_at = NOW()
			RETURNING *
		)
		SELECT ` + estimationColumns + `
		FROM upserted pe
		LEFT JOIN employees e ON e.id = pe.employee_id
	`

	saved, err := scanEstimation(q.QueryRow(ctx, query,
		est.EmployeeID, est.WeekStart, est.WeekEnd, est.RegularHours, est.OvertimeHours,
		est.BasePay, est.OvertimePay, est.Bonuses, est.Deductions, est.GrossTotal, est.NetTotal,
	))
	if err != nil {
		return payroll.Estimation{}, fmt.Errorf("failed to upsert estimation for employee %s: %w", est.EmployeeID, err)
	}
	return saved, nil
}

func (r *payrollRepository) GetEstimation(ctx context.Context, employeeID string, weekStart time.Time) (payroll.Estimation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + estimationColumns + `
		FROM payroll_estimations pe
		LEFT JOIN employees e ON e.id = pe.employee_id
		WHERE pe.employee_id = $1 AND pe.week_start = $2
	`

	est, err := scanEstimation(q.QueryRow(ctx, query, employeeID, weekStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Estimation{}, payroll.ErrEstimationNotFound
		}
		return payroll.Estimation{}, fmt.Errorf("failed to get estimation: %w", err)
	}
	return est, nil
}

func (r *payrollRepository) ListEstimationsByWeek(ctx context.Context, weekStart time.Time) ([]payroll.Estimation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + estimationColumns + `
		FROM payroll_estimations pe
		LEFT JOIN employees e ON e.id = pe.employee_id
		WHERE pe.week_start = $1
		ORDER BY e.full_name, pe.employee_id
	`

	rows, err := q.Query(ctx, query, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimations: %w", err)
	}
	defer rows.Close()

	var estimations []payroll.Estimation
	for rows.Next() {
		est, err := scanEstimation(rows)
		if err != nil {
			return nil, err
		}
		estimations = append(estimations, est)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return estimations, nil
}

// ========== ADJUSTMENTS ==========

func (r *payrollRepository) GetAdjustment(ctx context.Context, employeeID string, weekStart time.Time) (*payroll.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, week_start, bonuses, deductions, notes, updated_at
		FROM payroll_adjustments
		WHERE employee_id = $1 AND week_start = $2
	`

	var adj payroll.Adjustment
	err := q.QueryRow(ctx, query, employeeID, weekStart).Scan(
		&adj.EmployeeID, &adj.WeekStart, &adj.Bonuses, &adj.Deductions, &adj.Notes, &adj.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payroll adjustment: %w", err)
	}
	return &adj, nil
}
