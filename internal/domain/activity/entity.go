package activity

import "time"

// Entry is one audit trail line.
type Entry struct {
	ID          string
	Actor       string
	Action      string
	Module      string
	Description string
	CreatedAt   time.Time
}

// Actor identifies who triggered an operation, as read from the access token.
type Actor struct {
	ID   string
	Name string
	Role string
}

// SystemActor is used for work the scheduler starts on its own.
var SystemActor = Actor{ID: "system", Name: "system", Role: "system"}

func (a Actor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

const (
	ModulePayroll    = "payroll"
	ModuleAttendance = "attendance"
)
