package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
	"github.com/buildcrew/workforce-backend/internal/domain/employee"
	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	weekStart = time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC) // Sunday
	monday    = weekStart.AddDate(0, 0, 1)
	tuesday   = weekStart.AddDate(0, 0, 2)
	fixedNow  = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
)

type calculatorFixture struct {
	employees  *fakeEmployeeRepo
	attendance *fakeAttendanceRepo
	payroll    *fakePayrollRepo
	calc       payroll.Calculator
}

func newCalculatorFixture(emps ...employee.Employee) *calculatorFixture {
	f := &calculatorFixture{
		employees:  newFakeEmployeeRepo(emps...),
		attendance: &fakeAttendanceRepo{},
		payroll:    newFakePayrollRepo(),
	}
	f.calc = NewCalculator(f.employees, f.attendance, f.payroll, CalculatorConfig{
		Policy:             payroll.DefaultPolicy(),
		PersistenceTimeout: time.Second,
		Now:                func() time.Time { return fixedNow },
	})
	return f
}

func day(employeeID string, date time.Time, in, out *time.Time) attendance.AttendanceRecord {
	return attendance.AttendanceRecord{EmployeeID: employeeID, Date: date, ClockIn: in, ClockOut: out}
}

func TestCalculate_SumsUnroundedDailyHours(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("e1", "20"))
	for i := 1; i <= 3; i++ {
		d := weekStart.AddDate(0, 0, i)
		f.attendance.add(day("e1", d, at(d, 8, 0), at(d, 16, 20)))
	}

	est, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)

	// three days of 8h20m carry exactly one hour of overtime
	assert.True(t, est.RegularHours.Equal(dec("24")), est.RegularHours.String())
	assert.True(t, est.OvertimeHours.Equal(dec("1")), est.OvertimeHours.String())
	assert.True(t, est.OvertimePay.Equal(dec("30")), est.OvertimePay.String())
}

func TestCalculate_RegularAndOvertimeSplit(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("e1", "20"))
	f.attendance.add(day("e1", monday, at(monday, 8, 0), at(monday, 18, 0)))

	est, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)

	assert.True(t, est.RegularHours.Equal(dec("8")), est.RegularHours.String())
	assert.True(t, est.OvertimeHours.Equal(dec("2")), est.OvertimeHours.String())
	assert.True(t, est.BasePay.Equal(dec("160")))
	assert.True(t, est.OvertimePay.Equal(dec("60")))
	assert.True(t, est.GrossTotal.Equal(dec("220")))
	assert.True(t, est.Deductions.Equal(dec("33")))
	assert.True(t, est.NetTotal.Equal(dec("187")))
	assert.Equal(t, weekStart, est.WeekStart)
	assert.Equal(t, weekStart.AddDate(0, 0, 6), est.WeekEnd)
	assert.Equal(t, fixedNow, est.UpdatedAt)
}

func TestCalculate_OvertimeIsPerDay(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("e1", "10"))
	// 6h + 10h: the short day does not absorb the long day's overtime.
	f.attendance.add(
		day("e1", monday, at(monday, 8, 0), at(monday, 14, 0)),
		day("e1", tuesday, at(tuesday, 7, 0), at(tuesday, 17, 0)),
	)

	est, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)
	assert.True(t, est.RegularHours.Equal(dec("14")))
	assert.True(t, est.OvertimeHours.Equal(dec("2")))
	assert.True(t, est.OvertimePay.Equal(dec("30")))
}

func TestCalculate_LunchBreakIsSubtracted(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("e1", "20"))
	rec := day("e1", monday, at(monday, 8, 0), at(monday, 17, 0))
	rec.LunchStart = at(monday, 12, 0)
	rec.LunchEnd = at(monday, 12, 45)
	f.attendance.add(rec)

	est, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)
	assert.True(t, est.RegularHours.Equal(dec("8")))
	assert.True(t, est.OvertimeHours.Equal(dec("0.25")))
	assert.True(t, est.OvertimePay.Equal(dec("7.5")))
}

func TestCalculate_IsIdempotent(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("e1", "20"))
	f.attendance.add(day("e1", monday, at(monday, 8, 0), at(monday, 18, 0)))

	first, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)
	second, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)

	assert.Equal(t, 1, f.payroll.count())
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.GrossTotal.Equal(second.GrossTotal))
	assert.True(t, first.NetTotal.Equal(second.NetTotal))
}

func TestCalculate_HourlyAndDailyAreEquivalent(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("hourly", "20"), dailyEmployee("daily", "160"))
	for _, id := range []string{"hourly", "daily"} {
		f.attendance.add(
			day(id, monday, at(monday, 8, 0), at(monday, 18, 30)),
			day(id, tuesday, at(tuesday, 8, 0), at(tuesday, 15, 0)),
		)
	}

	h, err := f.calc.Calculate(context.Background(), "hourly", weekStart)
	require.NoError(t, err)
	d, err := f.calc.Calculate(context.Background(), "daily", weekStart)
	require.NoError(t, err)

	assert.True(t, h.BasePay.Equal(d.BasePay))
	assert.True(t, h.OvertimePay.Equal(d.OvertimePay))
	assert.True(t, h.NetTotal.Equal(d.NetTotal))
}

func TestCalculate_ZeroAttendanceStillStoresRow(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("e1", "20"))

	est, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)

	assert.True(t, est.GrossTotal.IsZero())
	assert.True(t, est.NetTotal.IsZero())
	assert.True(t, est.Deductions.IsZero())
	_, stored := f.payroll.get("e1", weekStart)
	assert.True(t, stored)
}

func TestCalculate_OnlyCountsDaysInsideTheWeek(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("e1", "20"))
	saturdayBefore := weekStart.AddDate(0, 0, -1)
	sundayAfter := weekStart.AddDate(0, 0, 7)
	saturdayLast := weekStart.AddDate(0, 0, 6)
	f.attendance.add(
		day("e1", saturdayBefore, at(saturdayBefore, 8, 0), at(saturdayBefore, 16, 0)),
		day("e1", sundayAfter, at(sundayAfter, 8, 0), at(sundayAfter, 16, 0)),
		day("e1", weekStart, at(weekStart, 8, 0), at(weekStart, 12, 0)),
		day("e1", saturdayLast, at(saturdayLast, 8, 0), at(saturdayLast, 12, 0)),
	)

	est, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)
	assert.True(t, est.RegularHours.Equal(dec("8")), est.RegularHours.String())
}

func TestCalculate_PartialDaysContributeNothing(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("e1", "20"))
	f.attendance.add(
		day("e1", monday, at(monday, 8, 0), nil),
		day("e1", tuesday, nil, at(tuesday, 17, 0)),
	)

	est, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)
	assert.True(t, est.RegularHours.IsZero())
	assert.True(t, est.GrossTotal.IsZero())
}

func TestCalculate_AppliesAdjustments(t *testing.T) {
	f := newCalculatorFixture(hourlyEmployee("e1", "20"), hourlyEmployee("e2", "20"))
	f.attendance.add(
		day("e1", monday, at(monday, 8, 0), at(monday, 16, 0)),
		day("e2", monday, at(monday, 8, 0), at(monday, 16, 0)),
	)
	f.payroll.adjustments[estimationKey{"e1", weekStart}] = payroll.Adjustment{
		EmployeeID: "e1", WeekStart: weekStart, Bonuses: dec("40"), Deductions: decPtr("25"),
	}
	f.payroll.adjustments[estimationKey{"e2", weekStart}] = payroll.Adjustment{
		EmployeeID: "e2", WeekStart: weekStart, Bonuses: dec("40"),
	}

	explicit, err := f.calc.Calculate(context.Background(), "e1", weekStart)
	require.NoError(t, err)
	assert.True(t, explicit.GrossTotal.Equal(dec("200")))
	assert.True(t, explicit.Deductions.Equal(dec("25")))
	assert.True(t, explicit.NetTotal.Equal(dec("175")))

	rated, err := f.calc.Calculate(context.Background(), "e2", weekStart)
	require.NoError(t, err)
	assert.True(t, rated.Deductions.Equal(dec("30")))
	assert.True(t, rated.NetTotal.Equal(dec("170")))
}

func TestCalculate_Errors(t *testing.T) {
	noRate := hourlyEmployee("norate", "20")
	noRate.HourlyRate = nil
	f := newCalculatorFixture(noRate, hourlyEmployee("e1", "20"))

	_, err := f.calc.Calculate(context.Background(), "missing", weekStart)
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
	assert.False(t, payroll.IsRetryable(err))

	_, err = f.calc.Calculate(context.Background(), "norate", weekStart)
	assert.ErrorIs(t, err, payroll.ErrMissingPayRate)
	assert.True(t, payroll.IsValidation(err))

	_, err = f.calc.Calculate(context.Background(), "e1", time.Time{})
	assert.True(t, payroll.IsValidation(err))

	f.payroll.failUpserts = 1
	_, err = f.calc.Calculate(context.Background(), "e1", weekStart)
	assert.ErrorIs(t, err, payroll.ErrPersistence)
	assert.ErrorIs(t, err, errStorage)
	assert.True(t, payroll.IsRetryable(err))

	assert.Equal(t, 0, f.payroll.count())
}
