package payroll

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/activity"
	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
	"github.com/buildcrew/workforce-backend/internal/domain/employee"
	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errStorage = errors.New("connection reset by peer")

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func at(day time.Time, hour, minute int) *time.Time {
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	return &t
}

// --- employees ---

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]employee.Employee
	listErr   error
}

func newFakeEmployeeRepo(emps ...employee.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{employees: make(map[string]employee.Employee)}
	for _, e := range emps {
		r.employees[e.ID] = e
	}
	return r
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.UserID != nil && *e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []employee.Employee
	for _, e := range r.employees {
		if e.IsActive() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func hourlyEmployee(id, rate string) employee.Employee {
	return employee.Employee{
		ID:         id,
		FullName:   "Worker " + id,
		SalaryType: employee.SalaryTypeHourly,
		HourlyRate: decPtr(rate),
		Status:     employee.StatusActive,
	}
}

func dailyEmployee(id, salary string) employee.Employee {
	return employee.Employee{
		ID:          id,
		FullName:    "Worker " + id,
		SalaryType:  employee.SalaryTypeDaily,
		DailySalary: decPtr(salary),
		Status:      employee.StatusActive,
	}
}

// --- attendance ---

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records []attendance.AttendanceRecord
}

func (r *fakeAttendanceRepo) add(recs ...attendance.AttendanceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recs...)
}

func (r *fakeAttendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && rec.Date.Equal(date) {
			rec := rec
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *fakeAttendanceRepo) Upsert(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.records {
		if rec.EmployeeID == record.EmployeeID && rec.Date.Equal(record.Date) {
			record.ID = rec.ID
			r.records[i] = record
			return record, nil
		}
	}
	record.ID = uuid.NewString()
	r.records = append(r.records, record)
	return record, nil
}

func (r *fakeAttendanceRepo) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.AttendanceRecord
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// --- payroll ---

type estimationKey struct {
	employeeID string
	weekStart  time.Time
}

type fakePayrollRepo struct {
	mu           sync.Mutex
	estimations  map[estimationKey]payroll.Estimation
	adjustments  map[estimationKey]payroll.Adjustment
	upserts      int
	failUpserts  int
	upsertCalls  int
	listWeekErr  error
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		estimations: make(map[estimationKey]payroll.Estimation),
		adjustments: make(map[estimationKey]payroll.Adjustment),
	}
}

func (r *fakePayrollRepo) UpsertEstimation(ctx context.Context, est payroll.Estimation) (payroll.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertCalls++
	if r.failUpserts > 0 {
		r.failUpserts--
		return payroll.Estimation{}, errStorage
	}
	key := estimationKey{est.EmployeeID, est.WeekStart}
	if existing, ok := r.estimations[key]; ok {
		est.ID = existing.ID
		est.CreatedAt = existing.CreatedAt
	} else {
		est.ID = uuid.NewString()
		est.CreatedAt = est.UpdatedAt
	}
	r.estimations[key] = est
	r.upserts++
	return est, nil
}

func (r *fakePayrollRepo) GetEstimation(ctx context.Context, employeeID string, weekStart time.Time) (payroll.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	est, ok := r.estimations[estimationKey{employeeID, weekStart}]
	if !ok {
		return payroll.Estimation{}, payroll.ErrEstimationNotFound
	}
	return est, nil
}

func (r *fakePayrollRepo) ListEstimationsByWeek(ctx context.Context, weekStart time.Time) ([]payroll.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listWeekErr != nil {
		return nil, r.listWeekErr
	}
	var out []payroll.Estimation
	for key, est := range r.estimations {
		if key.weekStart.Equal(weekStart) {
			out = append(out, est)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (r *fakePayrollRepo) GetAdjustment(ctx context.Context, employeeID string, weekStart time.Time) (*payroll.Adjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	adj, ok := r.adjustments[estimationKey{employeeID, weekStart}]
	if !ok {
		return nil, nil
	}
	return &adj, nil
}

func (r *fakePayrollRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.estimations)
}

func (r *fakePayrollRepo) get(employeeID string, weekStart time.Time) (payroll.Estimation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	est, ok := r.estimations[estimationKey{employeeID, weekStart}]
	return est, ok
}

// --- automation state ---

type fakeStateRepo struct {
	mu    sync.Mutex
	state *payroll.AutomationState
	saves int
}

func (r *fakeStateRepo) GetState(ctx context.Context) (payroll.AutomationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return payroll.AutomationState{}, payroll.ErrAutomationStateNotFound
	}
	return *r.state, nil
}

func (r *fakeStateRepo) SaveState(ctx context.Context, state payroll.AutomationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = &state
	r.saves++
	return nil
}

func (r *fakeStateRepo) current() payroll.AutomationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return payroll.AutomationState{}
	}
	return *r.state
}

// --- calculator wrapper ---

type countingCalculator struct {
	inner payroll.Calculator
	mu    sync.Mutex
	calls []estimationKey
}

func (c *countingCalculator) Calculate(ctx context.Context, employeeID string, weekStart time.Time) (payroll.Estimation, error) {
	c.mu.Lock()
	c.calls = append(c.calls, estimationKey{employeeID, weekStart})
	c.mu.Unlock()
	return c.inner.Calculate(ctx, employeeID, weekStart)
}

func (c *countingCalculator) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// --- activity ---

type recordingLogger struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (l *recordingLogger) Log(ctx context.Context, entry activity.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *recordingLogger) Stop() {}

func (l *recordingLogger) actions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- clock ---

type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock and runs due callbacks synchronously.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func (c *manualClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
