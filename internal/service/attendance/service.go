package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/activity"
	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
	"github.com/buildcrew/workforce-backend/internal/domain/auth"
	"github.com/buildcrew/workforce-backend/internal/domain/employee"
	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/buildcrew/workforce-backend/internal/domain/site"
	"github.com/buildcrew/workforce-backend/internal/pkg/geo"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

// Transactor runs fn in one database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Config struct {
	Location          *time.Location
	DailyRegularHours decimal.Decimal
	Now               func() time.Time
}

type AttendanceServiceImpl struct {
	tx             Transactor
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	siteRepo       site.SiteRepository
	publisher      attendance.ChangePublisher
	activity       activity.Logger
	cfg            Config
}

func NewAttendanceService(
	tx Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	siteRepo site.SiteRepository,
	publisher attendance.ChangePublisher,
	activityLogger activity.Logger,
	cfg Config,
) attendance.AttendanceService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if !cfg.DailyRegularHours.IsPositive() {
		cfg.DailyRegularHours = decimal.NewFromInt(8)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AttendanceServiceImpl{
		tx:             tx,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		siteRepo:       siteRepo,
		publisher:      publisher,
		activity:       activityLogger,
		cfg:            cfg,
	}
}

// punchFunc applies one punch to the day's record. record is nil when the day has none.
type punchFunc func(record *attendance.AttendanceRecord, now time.Time) (attendance.AttendanceRecord, error)

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := a.actingEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := a.checkGeofence(ctx, emp, req); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.punch(ctx, emp, attendance.ActionClockIn, false, func(record *attendance.AttendanceRecord, now time.Time) (attendance.AttendanceRecord, error) {
		if record != nil && record.ClockIn != nil {
			return attendance.AttendanceRecord{}, attendance.ErrAlreadyCheckedIn
		}
		r := attendance.AttendanceRecord{
			EmployeeID: emp.ID,
			SiteID:     emp.SiteID,
			Date:       payroll.CivilDate(now),
		}
		if record != nil {
			r = *record
		}
		r.ClockIn = &now
		r.ClockInLatitude = &req.Latitude
		r.ClockInLongitude = &req.Longitude
		return r, nil
	})
}

// StartLunch implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartLunch(ctx context.Context) (attendance.AttendanceResponse, error) {
	emp, err := a.actingEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.punch(ctx, emp, attendance.ActionLunchStart, true, func(record *attendance.AttendanceRecord, now time.Time) (attendance.AttendanceRecord, error) {
		switch {
		case record == nil || record.ClockIn == nil:
			return attendance.AttendanceRecord{}, attendance.ErrNotCheckedIn
		case record.ClockOut != nil:
			return attendance.AttendanceRecord{}, attendance.ErrAlreadyCheckedOut
		case record.LunchStart != nil:
			return attendance.AttendanceRecord{}, attendance.ErrLunchAlreadyStarted
		}
		r := *record
		r.LunchStart = &now
		return r, nil
	})
}

// EndLunch implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndLunch(ctx context.Context) (attendance.AttendanceResponse, error) {
	emp, err := a.actingEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.punch(ctx, emp, attendance.ActionLunchEnd, true, func(record *attendance.AttendanceRecord, now time.Time) (attendance.AttendanceRecord, error) {
		switch {
		case record == nil || record.ClockIn == nil:
			return attendance.AttendanceRecord{}, attendance.ErrNotCheckedIn
		case record.ClockOut != nil:
			return attendance.AttendanceRecord{}, attendance.ErrAlreadyCheckedOut
		case record.LunchStart == nil:
			return attendance.AttendanceRecord{}, attendance.ErrLunchNotStarted
		case record.LunchEnd != nil:
			return attendance.AttendanceRecord{}, attendance.ErrLunchAlreadyEnded
		}
		r := *record
		r.LunchEnd = &now
		return r, nil
	})
}

// ClockOut implements attendance.AttendanceService. An open lunch break is closed
// at the clock-out time.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := a.actingEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := a.checkGeofence(ctx, emp, req); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.punch(ctx, emp, attendance.ActionClockOut, true, func(record *attendance.AttendanceRecord, now time.Time) (attendance.AttendanceRecord, error) {
		switch {
		case record == nil || record.ClockIn == nil:
			return attendance.AttendanceRecord{}, attendance.ErrNotCheckedIn
		case record.ClockOut != nil:
			return attendance.AttendanceRecord{}, attendance.ErrAlreadyCheckedOut
		}
		r := *record
		if r.LunchStart != nil && r.LunchEnd == nil {
			r.LunchEnd = &now
		}
		r.ClockOut = &now
		r.ClockOutLatitude = &req.Latitude
		r.ClockOutLongitude = &req.Longitude

		worked := r.WorkedHours()
		_, overtime := attendance.SplitHours(worked, a.cfg.DailyRegularHours)
		r.TotalHours = worked.Round(2)
		r.OvertimeHours = overtime.Round(2)
		return r, nil
	})
}

// ListMine implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListMine(ctx context.Context, req attendance.ListMyAttendanceRequest) ([]attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	from, _ := time.Parse(time.DateOnly, req.From)
	to, _ := time.Parse(time.DateOnly, req.To)

	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	records, err := a.attendanceRepo.ListByEmployeeAndRange(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, toResponse(r, a.cfg.Location))
	}
	return responses, nil
}

// punch loads the day's record, applies fn and stores the result in one transaction,
// then announces the change. With carryOver, a record left open yesterday is used
// when today has none, so shifts that cross midnight can be closed.
func (a *AttendanceServiceImpl) punch(ctx context.Context, emp employee.Employee, action attendance.ChangeAction, carryOver bool, fn punchFunc) (attendance.AttendanceResponse, error) {
	now := a.cfg.Now().In(a.cfg.Location)
	today := payroll.CivilDate(now)

	var saved attendance.AttendanceRecord
	err := a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err := a.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, today)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}
		if record == nil && carryOver {
			prev, err := a.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, today.AddDate(0, 0, -1))
			if err != nil {
				return fmt.Errorf("failed to get previous attendance: %w", err)
			}
			if prev != nil && prev.ClockIn != nil && prev.ClockOut == nil {
				record = prev
			}
		}

		updated, err := fn(record, now)
		if err != nil {
			return err
		}

		saved, err = a.attendanceRepo.Upsert(ctx, updated)
		if err != nil {
			return fmt.Errorf("failed to save attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	change := attendance.Change{
		EmployeeID: saved.EmployeeID,
		RecordID:   saved.ID,
		Date:       saved.Date,
		Action:     action,
		OccurredAt: now,
	}
	if err := a.publisher.Publish(ctx, change); err != nil {
		slog.Warn("Failed to publish attendance change", "employee_id", emp.ID, "action", action, "error", err)
	}

	if a.activity != nil && (action == attendance.ActionClockIn || action == attendance.ActionClockOut) {
		a.activity.Log(ctx, activity.Entry{
			Actor:       emp.FullName,
			Action:      "attendance." + string(action),
			Module:      activity.ModuleAttendance,
			Description: fmt.Sprintf("%s %s on %s", emp.FullName, action, saved.Date.Format(time.DateOnly)),
		})
	}

	return toResponse(saved, a.cfg.Location), nil
}

func (a *AttendanceServiceImpl) actingEmployee(ctx context.Context) (employee.Employee, error) {
	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return employee.Employee{}, err
	}

	emp, err := a.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return employee.Employee{}, err
	}
	if !emp.IsActive() {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

func (a *AttendanceServiceImpl) checkGeofence(ctx context.Context, emp employee.Employee, req attendance.PunchRequest) error {
	if emp.SiteID == nil {
		return attendance.ErrNoSiteAssigned
	}
	s, err := a.siteRepo.GetByID(ctx, *emp.SiteID)
	if err != nil {
		return err
	}
	if !geo.WithinRadius(req.Latitude, req.Longitude, s.Latitude, s.Longitude, s.RadiusMeters) {
		return attendance.ErrOutsideAllowedRadius
	}
	return nil
}

// employeeIDFromContext reads the acting employee from the verified access token.
func employeeIDFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}
	c, err := auth.ClaimsFromMap(claims)
	if err != nil {
		return "", err
	}
	if c.EmployeeID == nil {
		return "", auth.ErrEmployeeIDRequired
	}
	return *c.EmployeeID, nil
}

// timePtrToString formats an optional punch in the payroll zone.
func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format(time.RFC3339)
	return &format
}

func toResponse(r attendance.AttendanceRecord, loc *time.Location) attendance.AttendanceResponse {
	return attendance.AttendanceResponse{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		Date:          r.Date.Format(time.DateOnly),
		ClockIn:       timePtrToString(r.ClockIn, loc),
		LunchStart:    timePtrToString(r.LunchStart, loc),
		LunchEnd:      timePtrToString(r.LunchEnd, loc),
		ClockOut:      timePtrToString(r.ClockOut, loc),
		TotalHours:    r.TotalHours,
		OvertimeHours: r.OvertimeHours,
	}
}
