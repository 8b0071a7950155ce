package payroll

import "time"

const dateLayout = "2006-01-02"

// Week is a seven-day payroll window. Start and End are civil dates held as UTC
// midnight; End is always Start plus six days.
type Week struct {
	Start time.Time
	End   time.Time
}

// CivilDate drops the clock and zone from t, keeping its calendar day in t's location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewWeek builds the week starting on the calendar day of start.
func NewWeek(start time.Time) Week {
	s := CivilDate(start)
	return Week{Start: s, End: s.AddDate(0, 0, 6)}
}

// WeekOf returns the week containing t, where weeks begin on startDay. t is read in
// its own location, so callers pass a time already converted to the payroll zone.
func WeekOf(t time.Time, startDay time.Weekday) Week {
	day := CivilDate(t)
	offset := (int(day.Weekday()) - int(startDay) + 7) % 7
	return NewWeek(day.AddDate(0, 0, -offset))
}

// Contains reports whether the calendar day of date falls inside the week.
func (w Week) Contains(date time.Time) bool {
	d := CivilDate(date)
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Week) Next() Week {
	return NewWeek(w.Start.AddDate(0, 0, 7))
}

func (w Week) Prev() Week {
	return NewWeek(w.Start.AddDate(0, 0, -7))
}

func (w Week) String() string {
	return w.Start.Format(dateLayout) + ".." + w.End.Format(dateLayout)
}

// ParseWeekStart parses a YYYY-MM-DD date and checks it falls on startDay.
func ParseWeekStart(s string, startDay time.Weekday) (Week, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Week{}, ErrInvalidWeekStart
	}
	if t.Weekday() != startDay {
		return Week{}, ErrInvalidWeekStart
	}
	return NewWeek(t), nil
}
