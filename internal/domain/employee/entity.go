package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           string
	UserID       *string
	FullName     string
	SiteID       *string
	SupervisorID *string
	SalaryType   SalaryType
	HourlyRate   *decimal.Decimal
	DailySalary  *decimal.Decimal
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SalaryType string

const (
	SalaryTypeHourly SalaryType = "hourly"
	SalaryTypeDaily  SalaryType = "daily"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (e Employee) IsActive() bool {
	return e.Status == StatusActive
}
