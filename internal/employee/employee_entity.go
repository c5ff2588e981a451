package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Employment categories.
const (
	CategoryPermanent = "PERMANENT"
	CategoryProbation = "PROBATION"
	CategoryContract  = "CONTRACT"
)

type Employee struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName    string    `gorm:"type:varchar(150);not null"`
	Department  string    `gorm:"type:varchar(100);not null;index:idx_employees_department"`
	Designation string    `gorm:"type:varchar(100)"`
	Category    string    `gorm:"type:varchar(20);not null;default:'PERMANENT'"`
	JoinDate    time.Time `gorm:"type:date;not null"`
	BaseSalary  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_employees_deleted_at"`

	Balances []LeaveBalance `gorm:"foreignKey:EmployeeID"`
}

func (Employee) TableName() string {
	return "employees"
}

// LeaveBalance tracks one leave type's quota for one employee. Used may
// exceed Total; over-drawn balances are tolerated, not rejected.
type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_leave_balances_employee_type"`
	LeaveType  string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_leave_balances_employee_type"`
	Total      int       `gorm:"not null;default:0"`
	Used       int       `gorm:"not null;default:0"`
	UpdatedAt  time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}
