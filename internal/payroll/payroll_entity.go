package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayrollRun is a frozen computation result. Runs are only ever created
// and read; there is no update path.
type PayrollRun struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunNumber  string    `gorm:"type:varchar(30);not null;uniqueIndex"`
	RunDate    time.Time `gorm:"type:date;not null"`
	MonthLabel string    `gorm:"type:varchar(20);not null;uniqueIndex"`

	TotalGross     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TotalDeduction decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TotalNet       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time

	Lines []PayrollLine `gorm:"foreignKey:RunID"`
}

func (PayrollRun) TableName() string {
	return "payroll_runs"
}

type PayrollLine struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunID      uuid.UUID `gorm:"type:uuid;not null"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null"`

	BaseSalary    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PresentDays   int             `gorm:"not null;default:0"`
	PaidLeaveDays int             `gorm:"not null;default:0"`
	Deduction     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	NetPay        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	CreatedAt time.Time
}

func (PayrollLine) TableName() string {
	return "payroll_lines"
}

// EmployeeRef is the slice of the employee row payroll needs.
type EmployeeRef struct {
	ID         uuid.UUID
	FullName   string
	BaseSalary decimal.Decimal
}

// LeaveWindow is one approved leave range read for paid-day counting.
type LeaveWindow struct {
	EmployeeID uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
}
